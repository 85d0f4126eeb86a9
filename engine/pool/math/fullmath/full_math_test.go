package fullmath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	cases := []struct {
		name        string
		a, b, denom int64
		want        int64
	}{
		{"exact", 10, 20, 5, 40},
		{"truncates", 10, 7, 3, 23},
		{"truncates again", 10, 6, 3, 20},
		{"zero numerator", 0, 100, 7, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dest := new(big.Int)
			err := MulDiv(dest, big.NewInt(tc.a), big.NewInt(tc.b), big.NewInt(tc.denom))
			require.NoError(t, err)
			assert.Equal(t, tc.want, dest.Int64())
		})
	}
}

func TestMulDivRoundingUp(t *testing.T) {
	dest := new(big.Int)

	err := MulDivRoundingUp(dest, big.NewInt(10), big.NewInt(7), big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(24), dest.Int64())

	// An exact division must not round.
	err = MulDivRoundingUp(dest, big.NewInt(10), big.NewInt(6), big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(20), dest.Int64())
}

func TestMulDivWideProduct(t *testing.T) {
	// a * b overflows 256 bits but the quotient fits.
	a := new(big.Int).Set(MaxUint256)
	dest := new(big.Int)

	err := MulDiv(dest, a, big.NewInt(7), big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, 0, dest.Cmp(MaxUint256))
}

func TestMulDivZeroDenominator(t *testing.T) {
	dest := new(big.Int)

	err := MulDiv(dest, big.NewInt(1), big.NewInt(1), big.NewInt(0))
	assert.ErrorIs(t, err, ErrDenominatorZero)

	err = MulDivRoundingUp(dest, big.NewInt(1), big.NewInt(1), big.NewInt(0))
	assert.ErrorIs(t, err, ErrDenominatorZero)
}

func TestMulDivOverflow(t *testing.T) {
	dest := new(big.Int)

	err := MulDiv(dest, MaxUint256, big.NewInt(2), big.NewInt(1))
	assert.ErrorIs(t, err, ErrResultOverflow)
}

func TestDivRoundingUp(t *testing.T) {
	dest := new(big.Int)

	require.NoError(t, DivRoundingUp(dest, big.NewInt(10), big.NewInt(3)))
	assert.Equal(t, int64(4), dest.Int64())

	require.NoError(t, DivRoundingUp(dest, big.NewInt(9), big.NewInt(3)))
	assert.Equal(t, int64(3), dest.Int64())
}
