package liquiditymath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickdex/tickdex-engine-go/engine/pool/math/fullmath"
)

func TestAddDelta(t *testing.T) {
	dest := new(big.Int)

	require.NoError(t, AddDelta(dest, big.NewInt(1), big.NewInt(0)))
	assert.Equal(t, int64(1), dest.Int64())

	require.NoError(t, AddDelta(dest, big.NewInt(1), big.NewInt(-1)))
	assert.Equal(t, int64(0), dest.Int64())

	err := AddDelta(dest, big.NewInt(0), big.NewInt(-1))
	assert.ErrorIs(t, err, ErrLiquidityUnderflow)

	err = AddDelta(dest, fullmath.MaxUint128, big.NewInt(1))
	assert.ErrorIs(t, err, ErrLiquidityOverflow)

	almostMax := new(big.Int).Sub(fullmath.MaxUint128, big.NewInt(1))
	require.NoError(t, AddDelta(dest, almostMax, big.NewInt(1)))
	assert.Equal(t, 0, dest.Cmp(fullmath.MaxUint128))
}

func TestGetLiquidityForAmount1Exact(t *testing.T) {
	// L = amount1 * Q96 / (sqrtB - sqrtA); with sqrtB - sqrtA = Q96 the
	// liquidity equals amount1.
	a := new(big.Int).Set(fullmath.Q96)
	b := new(big.Int).Mul(fullmath.Q96, big.NewInt(2))
	amount1 := big.NewInt(1_000_000)

	dest := new(big.Int)
	require.NoError(t, GetLiquidityForAmount1(dest, a, b, amount1))
	assert.Equal(t, int64(1_000_000), dest.Int64())
}

func TestGetLiquidityForAmountsPicksBindingSide(t *testing.T) {
	a := new(big.Int).Set(fullmath.Q96)
	b := new(big.Int).Mul(fullmath.Q96, big.NewInt(4))
	current := new(big.Int).Mul(fullmath.Q96, big.NewInt(2))

	plenty := new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil)
	scarce := big.NewInt(1000)

	fromBoth := new(big.Int)
	fromScarce1 := new(big.Int)
	require.NoError(t, GetLiquidityForAmounts(fromBoth, current, a, b, plenty, scarce))
	require.NoError(t, GetLiquidityForAmount1(fromScarce1, a, current, scarce))
	assert.Equal(t, 0, fromBoth.Cmp(fromScarce1), "scarce token1 must bind")
}

func TestGetLiquidityForAmountsOutsideRange(t *testing.T) {
	a := new(big.Int).Mul(fullmath.Q96, big.NewInt(2))
	b := new(big.Int).Mul(fullmath.Q96, big.NewInt(4))
	amount0 := big.NewInt(1_000_000)
	amount1 := big.NewInt(2_000_000)

	// Below the range only token0 matters.
	below := new(big.Int).Set(fullmath.Q96)
	gotBelow := new(big.Int)
	only0 := new(big.Int)
	require.NoError(t, GetLiquidityForAmounts(gotBelow, below, a, b, amount0, amount1))
	require.NoError(t, GetLiquidityForAmount0(only0, a, b, amount0))
	assert.Equal(t, 0, gotBelow.Cmp(only0))

	// Above the range only token1 matters.
	above := new(big.Int).Mul(fullmath.Q96, big.NewInt(8))
	gotAbove := new(big.Int)
	only1 := new(big.Int)
	require.NoError(t, GetLiquidityForAmounts(gotAbove, above, a, b, amount0, amount1))
	require.NoError(t, GetLiquidityForAmount1(only1, a, b, amount1))
	assert.Equal(t, 0, gotAbove.Cmp(only1))
}
