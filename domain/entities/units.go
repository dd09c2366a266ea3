package entities

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// WeiPerEther is the number of wei in one ether
	WeiPerEther = 1_000_000_000_000_000_000

	// MinimumStakeWei is the smallest value Enter accepts (0.01 ether)
	MinimumStakeWei = WeiPerEther / 100

	// maxAmountDigits is the decimal length of MaxAmount and the scale of the NUMERIC(78,0) columns
	maxAmountDigits = 78
)

var maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Unit is a denomination used when parsing amounts
type Unit string

const (
	UnitWei   Unit = "wei"
	UnitGwei  Unit = "gwei"
	UnitEther Unit = "ether"
)

var unitDecimals = map[Unit]int32{
	UnitWei:   0,
	UnitGwei:  9,
	UnitEther: 18,
}

// MinimumStake returns MinimumStakeWei as a big integer
func MinimumStake() *big.Int {
	return big.NewInt(MinimumStakeWei)
}

// MaxAmount returns the largest wei amount the ledger holds (2^256-1)
func MaxAmount() *big.Int {
	return new(big.Int).Set(maxAmount)
}

// ValidateAmount rejects nil, negative and out-of-range wei amounts
func ValidateAmount(wei *big.Int) error {
	if wei == nil || wei.Sign() < 0 {
		return fmt.Errorf("%w: amount must be non-negative", ErrInvalidAmount)
	}
	if wei.Cmp(maxAmount) > 0 {
		return fmt.Errorf("%w: amount exceeds %s wei", ErrInvalidAmount, maxAmount)
	}
	return nil
}

// ParseAmount converts a decimal string in the given unit to wei.
// An empty unit means wei. The result must be a non-negative whole number of
// wei no larger than MaxAmount.
func ParseAmount(value string, unit Unit) (*big.Int, error) {
	if unit == "" {
		unit = UnitWei
	}
	decimals, ok := unitDecimals[Unit(strings.ToLower(string(unit)))]
	if !ok {
		return nil, fmt.Errorf("%w: unknown unit %q", ErrInvalidAmount, unit)
	}

	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, value)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, value)
	}

	if d.IsZero() {
		return new(big.Int), nil
	}

	// Bound the magnitude before Shift and BigInt expand the exponent
	exp := int64(d.Exponent()) + int64(decimals)
	digits := int64(len(d.Coefficient().String()))
	if exp+digits > maxAmountDigits {
		return nil, fmt.Errorf("%w: %s %s exceeds %s wei", ErrInvalidAmount, value, unit, maxAmount)
	}
	if exp < 0 && -exp >= digits {
		return nil, fmt.Errorf("%w: %s %s is not a whole number of wei", ErrInvalidAmount, value, unit)
	}

	wei := d.Shift(decimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s %s is not a whole number of wei", ErrInvalidAmount, value, unit)
	}

	result := wei.BigInt()
	if err := ValidateAmount(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Ether converts an ether amount to wei and panics on malformed input.
// Intended for constants and tests.
func Ether(value string) *big.Int {
	wei, err := ParseAmount(value, UnitEther)
	if err != nil {
		panic(err)
	}
	return wei
}

// FormatEther renders a wei amount in ether without trailing zeros
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -18).String()
}
