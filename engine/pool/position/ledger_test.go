package position

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickdex/tickdex-engine-go/engine/pool/math/liquiditymath"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	q128  = new(uint256.Int).Lsh(uint256.NewInt(1), 128)
)

func testKey() Key {
	return Key{Owner: alice, TickLower: -600, TickUpper: 600}
}

func TestUpdateCreatesPosition(t *testing.T) {
	l := NewLedger()

	p, err := l.Update(testKey(), big.NewInt(1000), new(uint256.Int), new(uint256.Int))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), p.Liquidity.Int64())

	got, ok := l.Get(testKey())
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestPokeEmptyPositionFails(t *testing.T) {
	l := NewLedger()

	_, err := l.Update(testKey(), big.NewInt(0), new(uint256.Int), new(uint256.Int))
	assert.ErrorIs(t, err, ErrEmptyPosition)
}

func TestUpdateUnderflow(t *testing.T) {
	l := NewLedger()

	_, err := l.Update(testKey(), big.NewInt(100), new(uint256.Int), new(uint256.Int))
	require.NoError(t, err)

	_, err = l.Update(testKey(), big.NewInt(-101), new(uint256.Int), new(uint256.Int))
	assert.ErrorIs(t, err, liquiditymath.ErrLiquidityUnderflow)
}

func TestFeeAccrual(t *testing.T) {
	l := NewLedger()
	key := testKey()

	_, err := l.Update(key, big.NewInt(1000), new(uint256.Int), new(uint256.Int))
	require.NoError(t, err)

	// One full X128 unit of growth per unit of liquidity.
	p, err := l.Update(key, big.NewInt(0), q128, new(uint256.Int))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), p.TokensOwed0.Int64())
	assert.Equal(t, int64(0), p.TokensOwed1.Int64())

	// Poking again with an unchanged snapshot accrues nothing more.
	p, err = l.Update(key, big.NewInt(0), q128, new(uint256.Int))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), p.TokensOwed0.Int64())
}

func TestFeeAccrualWrapsSnapshot(t *testing.T) {
	l := NewLedger()
	key := testKey()

	// Last snapshot near the top of the range; the new inside value has
	// wrapped past zero. growth = inside - last must wrap as well.
	nearMax := new(uint256.Int).Not(new(uint256.Int)) // 2^256 - 1
	nearMax.Sub(nearMax, new(uint256.Int).Lsh(uint256.NewInt(1), 128))
	nearMax.Add(nearMax, uint256.NewInt(1)) // 2^256 - 2^128

	_, err := l.Update(key, big.NewInt(1), nearMax, new(uint256.Int))
	require.NoError(t, err)

	// inside wrapped to 0: growth = 0 - (2^256 - 2^128) = 2^128.
	p, err := l.Update(key, big.NewInt(0), new(uint256.Int), new(uint256.Int))
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.TokensOwed0.Int64())
}

func TestCollect(t *testing.T) {
	l := NewLedger()
	key := testKey()

	_, err := l.Update(key, big.NewInt(1000), new(uint256.Int), new(uint256.Int))
	require.NoError(t, err)
	_, err = l.Update(key, big.NewInt(0), q128, new(uint256.Int))
	require.NoError(t, err)

	// Partial collect.
	got0, got1 := l.Collect(key, big.NewInt(300), big.NewInt(10))
	assert.Equal(t, int64(300), got0.Int64())
	assert.Equal(t, int64(0), got1.Int64())

	// Requesting more than owed pays out the remainder only.
	got0, _ = l.Collect(key, big.NewInt(10_000), big.NewInt(0))
	assert.Equal(t, int64(700), got0.Int64())

	p, _ := l.Get(key)
	assert.Equal(t, int64(0), p.TokensOwed0.Int64())
}

func TestCollectUnknownPosition(t *testing.T) {
	l := NewLedger()

	got0, got1 := l.Collect(testKey(), big.NewInt(100), big.NewInt(100))
	assert.Equal(t, int64(0), got0.Int64())
	assert.Equal(t, int64(0), got1.Int64())
}
