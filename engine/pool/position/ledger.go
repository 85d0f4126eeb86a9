package position

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/tickdex/tickdex-engine-go/engine/pool/math/fullmath"
	"github.com/tickdex/tickdex-engine-go/engine/pool/math/liquiditymath"
)

var (
	// ErrEmptyPosition is returned when a zero-delta poke targets a
	// position that holds no liquidity.
	ErrEmptyPosition = errors.New("position has no liquidity")
)

// Key identifies a position by owner and range. Two mints with the same key
// accrue into one position.
type Key struct {
	Owner     common.Address
	TickLower int64
	TickUpper int64
}

// Position tracks liquidity and fee checkpoints for one owner-range pair.
// TokensOwed accumulates both collected fees and burned principal until
// Collect pays it out.
type Position struct {
	Liquidity *big.Int

	FeeGrowthInside0LastX128 *uint256.Int
	FeeGrowthInside1LastX128 *uint256.Int

	TokensOwed0 *big.Int
	TokensOwed1 *big.Int
}

func newPosition() *Position {
	return &Position{
		Liquidity:                new(big.Int),
		FeeGrowthInside0LastX128: new(uint256.Int),
		FeeGrowthInside1LastX128: new(uint256.Int),
		TokensOwed0:              new(big.Int),
		TokensOwed1:              new(big.Int),
	}
}

// Ledger stores every position of one pool.
type Ledger struct {
	positions map[Key]*Position
}

func NewLedger() *Ledger {
	return &Ledger{positions: make(map[Key]*Position)}
}

// Get returns the position for a key, or false if it was never touched.
func (l *Ledger) Get(key Key) (*Position, bool) {
	p, ok := l.positions[key]
	return p, ok
}

// Update applies a liquidity delta and settles fees accrued since the last
// checkpoint. A zero delta is a poke: it only settles fees and requires the
// position to exist with liquidity.
//
// The snapshot subtraction wraps modulo 2^256; owed amounts are
// liquidity * growth / 2^128 with the product taken at full width.
func (l *Ledger) Update(key Key, liquidityDelta *big.Int, feeGrowthInside0X128, feeGrowthInside1X128 *uint256.Int) (*Position, error) {
	p, ok := l.positions[key]
	if !ok {
		p = newPosition()
	}

	if liquidityDelta.Sign() == 0 && p.Liquidity.Sign() == 0 {
		return nil, ErrEmptyPosition
	}

	liquidityNext := new(big.Int)
	if err := liquiditymath.AddDelta(liquidityNext, p.Liquidity, liquidityDelta); err != nil {
		return nil, err
	}

	delta0 := new(uint256.Int).Sub(feeGrowthInside0X128, p.FeeGrowthInside0LastX128)
	delta1 := new(uint256.Int).Sub(feeGrowthInside1X128, p.FeeGrowthInside1LastX128)

	owed0 := new(big.Int)
	owed1 := new(big.Int)
	if err := fullmath.MulDiv(owed0, p.Liquidity, delta0.ToBig(), fullmath.Q128); err != nil {
		return nil, err
	}
	if err := fullmath.MulDiv(owed1, p.Liquidity, delta1.ToBig(), fullmath.Q128); err != nil {
		return nil, err
	}

	p.Liquidity = liquidityNext
	p.FeeGrowthInside0LastX128.Set(feeGrowthInside0X128)
	p.FeeGrowthInside1LastX128.Set(feeGrowthInside1X128)
	p.TokensOwed0.Add(p.TokensOwed0, owed0)
	p.TokensOwed1.Add(p.TokensOwed1, owed1)

	l.positions[key] = p
	return p, nil
}

// Collect pays out up to the requested amounts from the position's owed
// balances and returns what was actually paid.
func (l *Ledger) Collect(key Key, amount0Requested, amount1Requested *big.Int) (*big.Int, *big.Int) {
	p, ok := l.positions[key]
	if !ok {
		return new(big.Int), new(big.Int)
	}

	amount0 := minBig(amount0Requested, p.TokensOwed0)
	amount1 := minBig(amount1Requested, p.TokensOwed1)

	p.TokensOwed0.Sub(p.TokensOwed0, amount0)
	p.TokensOwed1.Sub(p.TokensOwed1, amount1)

	return amount0, amount1
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
