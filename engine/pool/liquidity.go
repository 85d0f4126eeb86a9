package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tickdex/tickdex-engine-go/engine/pool/math/fullmath"
	"github.com/tickdex/tickdex-engine-go/engine/pool/math/liquiditymath"
	"github.com/tickdex/tickdex-engine-go/engine/pool/math/sqrtpricemath"
	"github.com/tickdex/tickdex-engine-go/engine/pool/math/tickmath"
	"github.com/tickdex/tickdex-engine-go/engine/pool/position"
	"github.com/tickdex/tickdex-engine-go/engine/pool/tick"
)

func (p *Pool) checkTicks(lower, upper int64) error {
	if lower >= upper || lower < tickmath.MIN_TICK || upper > tickmath.MAX_TICK {
		return ErrInvalidTickRange
	}
	if lower%p.cfg.TickSpacing != 0 || upper%p.cfg.TickSpacing != 0 {
		return tick.ErrMisalignedTick
	}
	return nil
}

// rangeAmounts computes the token amounts covered by a liquidity magnitude
// over [lower, upper] at the current price. Rounds up when funding a mint,
// down when paying out a burn.
func (p *Pool) rangeAmounts(lower, upper int64, liquidity *big.Int, roundUp bool) (*big.Int, *big.Int, error) {
	lowerPrice := new(big.Int)
	upperPrice := new(big.Int)
	if err := tickmath.GetSqrtRatioAtTick(lowerPrice, lower); err != nil {
		return nil, nil, err
	}
	if err := tickmath.GetSqrtRatioAtTick(upperPrice, upper); err != nil {
		return nil, nil, err
	}

	amount0 := new(big.Int)
	amount1 := new(big.Int)

	switch {
	case p.currentTick < lower:
		// Entirely above the price: the range only ever holds token0.
		if err := sqrtpricemath.GetAmount0Delta(amount0, lowerPrice, upperPrice, liquidity, roundUp); err != nil {
			return nil, nil, err
		}
	case p.currentTick < upper:
		if err := sqrtpricemath.GetAmount0Delta(amount0, p.sqrtPriceX96, upperPrice, liquidity, roundUp); err != nil {
			return nil, nil, err
		}
		if err := sqrtpricemath.GetAmount1Delta(amount1, lowerPrice, p.sqrtPriceX96, liquidity, roundUp); err != nil {
			return nil, nil, err
		}
	default:
		// Entirely below the price: only token1.
		if err := sqrtpricemath.GetAmount1Delta(amount1, lowerPrice, upperPrice, liquidity, roundUp); err != nil {
			return nil, nil, err
		}
	}

	return amount0, amount1, nil
}

// MintAmounts previews the token amounts a mint would require, running
// every validation the mint itself would. It does not mutate the pool.
func (p *Pool) MintAmounts(owner common.Address, lower, upper int64, amount *big.Int) (*big.Int, *big.Int, error) {
	if !p.initialized {
		return nil, nil, ErrNotInitialized
	}
	if err := p.checkTicks(lower, upper); err != nil {
		return nil, nil, err
	}
	if amount.Sign() <= 0 {
		return nil, nil, ErrZeroLiquidity
	}

	// Every capacity check happens here so the apply step cannot fail.
	perTickCap := p.ticks.MaxLiquidityPerTick()
	for _, boundary := range []int64{lower, upper} {
		if info, ok := p.ticks.Get(boundary); ok {
			after := new(big.Int).Add(info.LiquidityGross, amount)
			if after.Cmp(perTickCap) > 0 {
				return nil, nil, tick.ErrLiquidityPerTick
			}
		} else if amount.Cmp(perTickCap) > 0 {
			return nil, nil, tick.ErrLiquidityPerTick
		}
	}

	key := position.Key{Owner: owner, TickLower: lower, TickUpper: upper}
	if pos, ok := p.positions.Get(key); ok {
		after := new(big.Int).Add(pos.Liquidity, amount)
		if after.Cmp(fullmath.MaxUint128) > 0 {
			return nil, nil, liquiditymath.ErrLiquidityOverflow
		}
	}

	if lower <= p.currentTick && p.currentTick < upper {
		after := new(big.Int).Add(p.liquidity, amount)
		if after.Cmp(fullmath.MaxUint128) > 0 {
			return nil, nil, liquiditymath.ErrLiquidityOverflow
		}
	}

	return p.rangeAmounts(lower, upper, amount, true)
}

// Mint adds liquidity to a range and returns the token amounts the caller
// owes the pool. Settlement is the caller's concern; the pool state is
// final once Mint returns.
func (p *Pool) Mint(owner common.Address, lower, upper int64, amount *big.Int, now uint32) (*big.Int, *big.Int, error) {
	amount0, amount1, err := p.MintAmounts(owner, lower, upper, amount)
	if err != nil {
		return nil, nil, err
	}

	if _, err := p.applyDelta(owner, lower, upper, amount, now); err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

// Burn removes liquidity from a range and credits the freed token amounts
// to the position's owed balances. A zero amount is a poke that only
// settles fees.
func (p *Pool) Burn(owner common.Address, lower, upper int64, amount *big.Int, now uint32) (*big.Int, *big.Int, error) {
	if !p.initialized {
		return nil, nil, ErrNotInitialized
	}
	if err := p.checkTicks(lower, upper); err != nil {
		return nil, nil, err
	}
	if amount.Sign() < 0 {
		return nil, nil, ErrNegativeAmount
	}

	key := position.Key{Owner: owner, TickLower: lower, TickUpper: upper}
	pos, ok := p.positions.Get(key)
	if !ok || pos.Liquidity.Sign() == 0 {
		if amount.Sign() == 0 {
			return nil, nil, position.ErrEmptyPosition
		}
	}
	if amount.Sign() > 0 {
		if !ok || pos.Liquidity.Cmp(amount) < 0 {
			return nil, nil, liquiditymath.ErrLiquidityUnderflow
		}
	}

	amount0, amount1, err := p.rangeAmounts(lower, upper, amount, false)
	if err != nil {
		return nil, nil, err
	}

	delta := new(big.Int).Neg(amount)
	updated, err := p.applyDelta(owner, lower, upper, delta, now)
	if err != nil {
		return nil, nil, err
	}

	updated.TokensOwed0.Add(updated.TokensOwed0, amount0)
	updated.TokensOwed1.Add(updated.TokensOwed1, amount1)
	return amount0, amount1, nil
}

// Collect pays out up to the requested amounts from a position's owed
// balances.
func (p *Pool) Collect(owner common.Address, lower, upper int64, amount0Requested, amount1Requested *big.Int) (*big.Int, *big.Int, error) {
	if !p.initialized {
		return nil, nil, ErrNotInitialized
	}
	if amount0Requested.Sign() < 0 || amount1Requested.Sign() < 0 {
		return nil, nil, ErrNegativeAmount
	}

	key := position.Key{Owner: owner, TickLower: lower, TickUpper: upper}
	amount0, amount1 := p.positions.Collect(key, amount0Requested, amount1Requested)
	return amount0, amount1, nil
}

// applyDelta commits a validated liquidity change: tick boundaries, bitmap
// bits, the position checkpoint and the in-range liquidity, plus an oracle
// write when the in-range liquidity moves.
func (p *Pool) applyDelta(owner common.Address, lower, upper int64, delta *big.Int, now uint32) (*position.Position, error) {
	tickCum, spl, err := p.obs.Observe(now, 0, p.currentTick, p.liquidity)
	if err != nil {
		return nil, err
	}

	var flippedLower, flippedUpper bool
	if delta.Sign() != 0 {
		flippedLower, err = p.ticks.Update(lower, p.currentTick, delta,
			p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128, spl, tickCum, now, false)
		if err != nil {
			return nil, err
		}
		flippedUpper, err = p.ticks.Update(upper, p.currentTick, delta,
			p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128, spl, tickCum, now, true)
		if err != nil {
			return nil, err
		}
		if flippedLower {
			if err := p.ticks.Flip(lower); err != nil {
				return nil, err
			}
		}
		if flippedUpper {
			if err := p.ticks.Flip(upper); err != nil {
				return nil, err
			}
		}
	}

	inside0, inside1 := p.ticks.FeeGrowthInside(lower, upper, p.currentTick,
		p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128)

	key := position.Key{Owner: owner, TickLower: lower, TickUpper: upper}
	pos, err := p.positions.Update(key, delta, inside0, inside1)
	if err != nil {
		return nil, err
	}

	if delta.Sign() < 0 {
		if flippedLower {
			p.ticks.Clear(lower)
		}
		if flippedUpper {
			p.ticks.Clear(upper)
		}
	}

	if delta.Sign() != 0 && lower <= p.currentTick && p.currentTick < upper {
		p.obs.Write(now, p.currentTick, p.liquidity)
		next := new(big.Int)
		if err := liquiditymath.AddDelta(next, p.liquidity, delta); err != nil {
			return nil, err
		}
		p.liquidity = next
	}

	return pos, nil
}
