package entities

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const addressHexLength = 40

// Address identifies an account. Addresses are compared by value in their
// canonical form: 0x prefix followed by 40 lowercase hex digits.
type Address string

// ParseAddress validates s and returns it in canonical form
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || (s[:2] != "0x" && s[:2] != "0X") {
		return "", fmt.Errorf("%w: %q is missing the 0x prefix", ErrInvalidAddress, s)
	}

	body := s[2:]
	if len(body) != addressHexLength {
		return "", fmt.Errorf("%w: %q must have %d hex digits", ErrInvalidAddress, s, addressHexLength)
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("%w: %q is not hex", ErrInvalidAddress, s)
	}

	return Address("0x" + strings.ToLower(body)), nil
}

// MustParseAddress is ParseAddress for constants and tests
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// String returns the canonical form
func (a Address) String() string {
	return string(a)
}

// Bytes returns the 20 raw address bytes, or nil if the address is malformed
func (a Address) Bytes() []byte {
	if len(a) != addressHexLength+2 {
		return nil
	}
	b, err := hex.DecodeString(string(a[2:]))
	if err != nil {
		return nil
	}
	return b
}

// IsZero returns true for the empty address
func (a Address) IsZero() bool {
	return a == ""
}
