package tickmath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSqrtRatioAtTickBounds(t *testing.T) {
	dest := new(big.Int)

	require.NoError(t, GetSqrtRatioAtTick(dest, MIN_TICK))
	assert.Equal(t, 0, dest.Cmp(MIN_SQRT_RATIO), "price at MIN_TICK")

	require.NoError(t, GetSqrtRatioAtTick(dest, MAX_TICK))
	assert.Equal(t, 0, dest.Cmp(MAX_SQRT_RATIO), "price at MAX_TICK")

	assert.ErrorIs(t, GetSqrtRatioAtTick(dest, MIN_TICK-1), ErrTickOutOfBounds)
	assert.ErrorIs(t, GetSqrtRatioAtTick(dest, MAX_TICK+1), ErrTickOutOfBounds)
}

func TestGetSqrtRatioAtTickZero(t *testing.T) {
	dest := new(big.Int)
	require.NoError(t, GetSqrtRatioAtTick(dest, 0))

	q96 := new(big.Int).Lsh(big.NewInt(1), 96)
	assert.Equal(t, 0, dest.Cmp(q96), "price at tick 0 is exactly 2^96")
}

func TestGetSqrtRatioAtTickMonotonic(t *testing.T) {
	prev := new(big.Int)
	cur := new(big.Int)
	require.NoError(t, GetSqrtRatioAtTick(prev, -1000))

	for tick := int64(-999); tick <= 1000; tick++ {
		require.NoError(t, GetSqrtRatioAtTick(cur, tick))
		assert.Equal(t, 1, cur.Cmp(prev), "price must strictly increase at tick %d", tick)
		prev.Set(cur)
	}
}

func TestGetTickAtSqrtRatioBounds(t *testing.T) {
	tick, err := GetTickAtSqrtRatio(MIN_SQRT_RATIO)
	require.NoError(t, err)
	assert.Equal(t, MIN_TICK, tick)

	// The max ratio itself is excluded.
	_, err = GetTickAtSqrtRatio(MAX_SQRT_RATIO)
	assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)

	belowMax := new(big.Int).Sub(MAX_SQRT_RATIO, big.NewInt(1))
	tick, err = GetTickAtSqrtRatio(belowMax)
	require.NoError(t, err)
	assert.Equal(t, MAX_TICK-1, tick)

	belowMin := new(big.Int).Sub(MIN_SQRT_RATIO, big.NewInt(1))
	_, err = GetTickAtSqrtRatio(belowMin)
	assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)
}

func TestTickSqrtRatioRoundTrip(t *testing.T) {
	price := new(big.Int)
	for _, tick := range []int64{MIN_TICK, -887270, -100000, -6932, -600, -1, 0, 1, 600, 6932, 100000, 887270} {
		require.NoError(t, GetSqrtRatioAtTick(price, tick))

		got, err := GetTickAtSqrtRatio(price)
		require.NoError(t, err)
		assert.Equal(t, tick, got, "round trip through tick %d", tick)
	}

	// MAX_TICK does not round-trip: its price is MAX_SQRT_RATIO, which the
	// inverse excludes.
	require.NoError(t, GetSqrtRatioAtTick(price, MAX_TICK))
	_, err := GetTickAtSqrtRatio(price)
	assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)
}

func TestGetTickAtSqrtRatioGreatestTickProperty(t *testing.T) {
	// A price strictly between tick 100 and tick 101 resolves to 100.
	lower := new(big.Int)
	upper := new(big.Int)
	require.NoError(t, GetSqrtRatioAtTick(lower, 100))
	require.NoError(t, GetSqrtRatioAtTick(upper, 101))

	mid := new(big.Int).Add(lower, upper)
	mid.Rsh(mid, 1)

	tick, err := GetTickAtSqrtRatio(mid)
	require.NoError(t, err)
	assert.Equal(t, int64(100), tick)
}
