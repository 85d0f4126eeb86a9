package pool

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/tickdex/tickdex-engine-go/engine/pool/math/fullmath"
	"github.com/tickdex/tickdex-engine-go/engine/pool/math/liquiditymath"
	"github.com/tickdex/tickdex-engine-go/engine/pool/math/swapmath"
	"github.com/tickdex/tickdex-engine-go/engine/pool/math/tickmath"
)

// crossing records a tick boundary passed during a swap together with the
// accumulator values at the moment of the cross. The registry transform is
// deferred to commit so a failed swap leaves no trace.
type crossing struct {
	tick           int64
	feeGrowth0X128 *uint256.Int
	feeGrowth1X128 *uint256.Int
	splX128        *uint256.Int
	tickCumulative int64
	timestamp      uint32
}

// SwapResult is the staged outcome of a swap. Amounts are signed: positive
// means owed to the pool, negative owed to the caller.
type SwapResult struct {
	Amount0 *big.Int
	Amount1 *big.Int

	SqrtPriceX96         *big.Int
	Tick                 int64
	Liquidity            *big.Int
	FeeGrowthGlobal0X128 *uint256.Int
	FeeGrowthGlobal1X128 *uint256.Int

	// FeePaid is the total fee charged on the input token.
	FeePaid *big.Int
	// AmountRemaining is the unfilled part of amountSpecified when
	// in-range liquidity ran out before the limit.
	AmountRemaining *big.Int
	// Steps counts loop iterations, for instrumentation.
	Steps int

	ZeroForOne bool
	crossings  []crossing
}

// ComputeSwap runs the full swap loop against the current state without
// mutating it. amountSpecified is positive for exact input, negative for
// exact output. A nil or zero sqrtPriceLimitX96 means no limit.
func (p *Pool) ComputeSwap(zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *big.Int, now uint32) (*SwapResult, error) {
	if !p.initialized {
		return nil, ErrNotInitialized
	}
	if amountSpecified == nil || amountSpecified.Sign() == 0 {
		return nil, ErrZeroAmount
	}

	limit, err := p.resolvePriceLimit(zeroForOne, sqrtPriceLimitX96)
	if err != nil {
		return nil, err
	}

	tickCum, spl, err := p.obs.Observe(now, 0, p.currentTick, p.liquidity)
	if err != nil {
		return nil, err
	}

	exactIn := amountSpecified.Sign() > 0

	res := &SwapResult{
		SqrtPriceX96:         new(big.Int).Set(p.sqrtPriceX96),
		Tick:                 p.currentTick,
		Liquidity:            new(big.Int).Set(p.liquidity),
		FeeGrowthGlobal0X128: new(uint256.Int).Set(p.feeGrowthGlobal0X128),
		FeeGrowthGlobal1X128: new(uint256.Int).Set(p.feeGrowthGlobal1X128),
		FeePaid:              new(big.Int),
		ZeroForOne:           zeroForOne,
	}

	remaining := new(big.Int).Set(amountSpecified)
	calculated := new(big.Int)
	stepPrice := new(big.Int)
	nextTickPrice := new(big.Int)

	for remaining.Sign() != 0 && res.SqrtPriceX96.Cmp(limit) != 0 {
		if res.Liquidity.Sign() == 0 {
			// Out of range of all positions: partial fill.
			break
		}

		nextTick, initialized := p.ticks.NextInitializedTickWithinOneWord(res.Tick, zeroForOne)
		if nextTick < tickmath.MIN_TICK {
			nextTick = tickmath.MIN_TICK
		} else if nextTick > tickmath.MAX_TICK {
			nextTick = tickmath.MAX_TICK
		}
		if err := tickmath.GetSqrtRatioAtTick(nextTickPrice, nextTick); err != nil {
			return nil, err
		}

		// The step may not move past the limit.
		target := nextTickPrice
		if zeroForOne && nextTickPrice.Cmp(limit) < 0 {
			target = limit
		} else if !zeroForOne && nextTickPrice.Cmp(limit) > 0 {
			target = limit
		}

		stepPrice.Set(res.SqrtPriceX96)
		step, err := swapmath.ComputeSwapStep(stepPrice, target, res.Liquidity, remaining, p.cfg.Fee)
		if err != nil {
			return nil, err
		}
		res.Steps++

		if exactIn {
			remaining.Sub(remaining, step.AmountIn)
			remaining.Sub(remaining, step.FeeAmount)
			calculated.Sub(calculated, step.AmountOut)
		} else {
			remaining.Add(remaining, step.AmountOut)
			calculated.Add(calculated, step.AmountIn)
			calculated.Add(calculated, step.FeeAmount)
		}
		res.FeePaid.Add(res.FeePaid, step.FeeAmount)

		// Fee growth accrues to whichever token came in, per unit of
		// the liquidity that earned it. Wrapping on overflow.
		if step.FeeAmount.Sign() > 0 {
			growth := new(big.Int).Lsh(step.FeeAmount, 128)
			growth.Quo(growth, res.Liquidity)
			growthU, _ := uint256.FromBig(new(big.Int).And(growth, fullmath.MaxUint256))
			if zeroForOne {
				res.FeeGrowthGlobal0X128.Add(res.FeeGrowthGlobal0X128, growthU)
			} else {
				res.FeeGrowthGlobal1X128.Add(res.FeeGrowthGlobal1X128, growthU)
			}
		}

		res.SqrtPriceX96.Set(step.SqrtRatioNextX96)

		if res.SqrtPriceX96.Cmp(nextTickPrice) == 0 {
			// Landed exactly on the boundary: cross it.
			if initialized {
				res.crossings = append(res.crossings, crossing{
					tick:           nextTick,
					feeGrowth0X128: new(uint256.Int).Set(res.FeeGrowthGlobal0X128),
					feeGrowth1X128: new(uint256.Int).Set(res.FeeGrowthGlobal1X128),
					splX128:        spl,
					tickCumulative: tickCum,
					timestamp:      now,
				})

				info, _ := p.ticks.Get(nextTick)
				net := new(big.Int).Set(info.LiquidityNet)
				if zeroForOne {
					net.Neg(net)
				}
				nextLiquidity := new(big.Int)
				if err := liquiditymath.AddDelta(nextLiquidity, res.Liquidity, net); err != nil {
					return nil, err
				}
				res.Liquidity = nextLiquidity
			}
			if zeroForOne {
				res.Tick = nextTick - 1
			} else {
				res.Tick = nextTick
			}
		} else if res.SqrtPriceX96.Cmp(stepPrice) != 0 {
			res.Tick, err = tickmath.GetTickAtSqrtRatio(res.SqrtPriceX96)
			if err != nil {
				return nil, err
			}
		}
	}

	res.AmountRemaining = remaining

	filled := new(big.Int).Sub(amountSpecified, remaining)
	if zeroForOne == exactIn {
		res.Amount0 = filled
		res.Amount1 = calculated
	} else {
		res.Amount0 = calculated
		res.Amount1 = filled
	}
	return res, nil
}

// CommitSwap applies a staged swap result: oracle write with the pre-swap
// tick and liquidity, deferred tick crossings, then the new price state.
func (p *Pool) CommitSwap(res *SwapResult, now uint32) {
	if res.Tick != p.currentTick {
		p.obs.Write(now, p.currentTick, p.liquidity)
	}

	for _, c := range res.crossings {
		p.ticks.Cross(c.tick, c.feeGrowth0X128, c.feeGrowth1X128, c.splX128, c.tickCumulative, c.timestamp)
	}

	p.sqrtPriceX96.Set(res.SqrtPriceX96)
	p.currentTick = res.Tick
	p.liquidity.Set(res.Liquidity)
	p.feeGrowthGlobal0X128.Set(res.FeeGrowthGlobal0X128)
	p.feeGrowthGlobal1X128.Set(res.FeeGrowthGlobal1X128)
}

// QuoteResult is a read-only swap simulation in caller-friendly terms:
// both amounts are magnitudes, with the fee included in AmountIn.
type QuoteResult struct {
	AmountIn          *big.Int
	AmountOut         *big.Int
	FeePaid           *big.Int
	SqrtPriceAfterX96 *big.Int
	TickAfter         int64
}

// Quote simulates a swap without touching pool state.
func (p *Pool) Quote(zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *big.Int, now uint32) (*QuoteResult, error) {
	res, err := p.ComputeSwap(zeroForOne, amountSpecified, sqrtPriceLimitX96, now)
	if err != nil {
		return nil, err
	}

	in, out := res.Amount0, res.Amount1
	if !zeroForOne {
		in, out = res.Amount1, res.Amount0
	}
	return &QuoteResult{
		AmountIn:          new(big.Int).Set(in),
		AmountOut:         new(big.Int).Neg(out),
		FeePaid:           new(big.Int).Set(res.FeePaid),
		SqrtPriceAfterX96: new(big.Int).Set(res.SqrtPriceX96),
		TickAfter:         res.Tick,
	}, nil
}

func (p *Pool) resolvePriceLimit(zeroForOne bool, limit *big.Int) (*big.Int, error) {
	if limit == nil || limit.Sign() == 0 {
		if zeroForOne {
			return new(big.Int).Add(tickmath.MIN_SQRT_RATIO, big.NewInt(1)), nil
		}
		return new(big.Int).Sub(tickmath.MAX_SQRT_RATIO, big.NewInt(1)), nil
	}

	if zeroForOne {
		if limit.Cmp(p.sqrtPriceX96) >= 0 || limit.Cmp(tickmath.MIN_SQRT_RATIO) <= 0 {
			return nil, ErrInvalidPriceLimit
		}
	} else {
		if limit.Cmp(p.sqrtPriceX96) <= 0 || limit.Cmp(tickmath.MAX_SQRT_RATIO) >= 0 {
			return nil, ErrInvalidPriceLimit
		}
	}
	return new(big.Int).Set(limit), nil
}
