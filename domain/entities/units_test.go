package entities

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxUint256 = "115792089237316195423570985008687907853269984665640564039457584007913129639935"

func TestMinimumStake(t *testing.T) {
	t.Parallel()

	want, ok := new(big.Int).SetString("10000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, 0, want.Cmp(MinimumStake()))
	assert.Equal(t, 0, Ether("0.01").Cmp(MinimumStake()))
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		unit    Unit
		want    string
		wantErr bool
	}{
		{name: "ether", value: "0.02", unit: UnitEther, want: "20000000000000000"},
		{name: "whole ether", value: "100", unit: UnitEther, want: "100000000000000000000"},
		{name: "gwei", value: "1.5", unit: UnitGwei, want: "1500000000"},
		{name: "empty unit is wei", value: "42", unit: "", want: "42"},
		{name: "unit is case insensitive", value: "1", unit: "Ether", want: "1000000000000000000"},
		{name: "zero", value: "0", unit: UnitEther, want: "0"},
		{name: "fractional wei", value: "0.5", unit: UnitWei, wantErr: true},
		{name: "negative", value: "-1", unit: UnitEther, wantErr: true},
		{name: "not a number", value: "lots", unit: UnitEther, wantErr: true},
		{name: "unknown unit", value: "1", unit: "finney", wantErr: true},
		{name: "max amount", value: maxUint256, unit: UnitWei, want: maxUint256},
		{name: "largest power of ten", value: "1e77", unit: UnitWei, want: "1" + strings.Repeat("0", 77)},
		{name: "zero with huge exponent", value: "0e2000000000", unit: UnitEther, want: "0"},
		{name: "trailing zero decimals", value: "10.000", unit: UnitWei, want: "10"},
		{name: "above max amount", value: "115792089237316195423570985008687907853269984665640564039457584007913129639936", unit: UnitWei, wantErr: true},
		{name: "79 digits", value: "1e78", unit: UnitWei, wantErr: true},
		{name: "81 digits", value: "1e80", unit: UnitWei, wantErr: true},
		{name: "exponent past range", value: "1e100", unit: UnitEther, wantErr: true},
		{name: "huge exponent", value: "1e2000000000", unit: UnitEther, wantErr: true},
		{name: "huge negative exponent", value: "1e-2000000000", unit: UnitEther, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseAmount(tt.value, tt.unit)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseAmount_HugeExponentReturnsQuickly(t *testing.T) {
	t.Parallel()

	start := time.Now()
	_, err := ParseAmount("1e2000000000", UnitEther)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseAmount("1e5000000", UnitEther)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Less(t, time.Since(start), time.Second)
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateAmount(big.NewInt(0)))
	assert.NoError(t, ValidateAmount(MaxAmount()))
	assert.ErrorIs(t, ValidateAmount(nil), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateAmount(big.NewInt(-1)), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateAmount(new(big.Int).Add(MaxAmount(), big.NewInt(1))), ErrInvalidAmount)

	// MaxAmount hands out copies
	m := MaxAmount()
	m.SetInt64(0)
	assert.Equal(t, maxUint256, MaxAmount().String())
}

func TestFormatEther(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.03", FormatEther(Ether("0.03")))
	assert.Equal(t, "100", FormatEther(Ether("100")))
	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
}
