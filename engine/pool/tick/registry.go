package tick

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/tickdex/tickdex-engine-go/engine/pool/math/fullmath"
	"github.com/tickdex/tickdex-engine-go/engine/pool/math/liquiditymath"
)

var (
	ErrMisalignedTick     = errors.New("tick is not a multiple of the tick spacing")
	ErrLiquidityPerTick   = errors.New("liquidity per tick exceeded")
	ErrInvalidTickSpacing = errors.New("tick spacing must be greater than zero")
)

// Info is the bookkeeping attached to an initialized tick boundary.
//
// The outside snapshots are relative values: they only have meaning with
// respect to the current tick and flip every time the tick is crossed.
type Info struct {
	LiquidityGross *big.Int
	LiquidityNet   *big.Int

	FeeGrowthOutside0X128          *uint256.Int
	FeeGrowthOutside1X128          *uint256.Int
	SecondsPerLiquidityOutsideX128 *uint256.Int
	TickCumulativeOutside          int64
	SecondsOutside                 uint32

	Initialized bool
}

func newInfo() *Info {
	return &Info{
		LiquidityGross:                 new(big.Int),
		LiquidityNet:                   new(big.Int),
		FeeGrowthOutside0X128:          new(uint256.Int),
		FeeGrowthOutside1X128:          new(uint256.Int),
		SecondsPerLiquidityOutsideX128: new(uint256.Int),
	}
}

// Registry stores per-tick state for one pool together with the word bitmap
// that makes initialized-tick lookup O(1) per 256-tick word.
type Registry struct {
	spacing             int64
	maxLiquidityPerTick *big.Int

	ticks map[int64]*Info
	words map[int64]*uint256.Int
}

// NewRegistry builds an empty registry for the given tick spacing. The
// per-tick liquidity cap is MaxUint128 divided evenly across the spacing.
func NewRegistry(spacing int64) (*Registry, error) {
	if spacing <= 0 {
		return nil, ErrInvalidTickSpacing
	}
	return &Registry{
		spacing:             spacing,
		maxLiquidityPerTick: new(big.Int).Quo(fullmath.MaxUint128, big.NewInt(spacing)),
		ticks:               make(map[int64]*Info),
		words:               make(map[int64]*uint256.Int),
	}, nil
}

// Spacing returns the tick spacing the registry was built with.
func (r *Registry) Spacing() int64 { return r.spacing }

// MaxLiquidityPerTick returns the per-tick gross liquidity cap.
func (r *Registry) MaxLiquidityPerTick() *big.Int {
	return new(big.Int).Set(r.maxLiquidityPerTick)
}

// Get returns the info stored for a tick, or false if the tick has never
// been initialized.
func (r *Registry) Get(tick int64) (*Info, bool) {
	info, ok := r.ticks[tick]
	return info, ok
}

// Update applies a liquidity delta to a tick boundary and reports whether
// the tick flipped between initialized and uninitialized. The caller flips
// the bitmap when flipped is true.
//
// A tick initialized at or below the current tick seeds its outside
// snapshots from the running globals, so that growth before the tick
// existed is attributed to the far side.
func (r *Registry) Update(
	tick, currentTick int64,
	liquidityDelta *big.Int,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int,
	secondsPerLiquidityCumulativeX128 *uint256.Int,
	tickCumulative int64,
	now uint32,
	upper bool,
) (bool, error) {
	info, ok := r.ticks[tick]
	if !ok {
		info = newInfo()
	}

	grossAfter := new(big.Int)
	if err := liquiditymath.AddDelta(grossAfter, info.LiquidityGross, liquidityDelta); err != nil {
		return false, err
	}
	if grossAfter.Cmp(r.maxLiquidityPerTick) > 0 {
		return false, ErrLiquidityPerTick
	}

	grossBefore := info.LiquidityGross
	flipped := (grossAfter.Sign() == 0) != (grossBefore.Sign() == 0)

	if grossBefore.Sign() == 0 {
		if tick <= currentTick {
			info.FeeGrowthOutside0X128.Set(feeGrowthGlobal0X128)
			info.FeeGrowthOutside1X128.Set(feeGrowthGlobal1X128)
			info.SecondsPerLiquidityOutsideX128.Set(secondsPerLiquidityCumulativeX128)
			info.TickCumulativeOutside = tickCumulative
			info.SecondsOutside = now
		}
		info.Initialized = true
	}

	info.LiquidityGross = grossAfter
	if upper {
		info.LiquidityNet = new(big.Int).Sub(info.LiquidityNet, liquidityDelta)
	} else {
		info.LiquidityNet = new(big.Int).Add(info.LiquidityNet, liquidityDelta)
	}

	r.ticks[tick] = info
	return flipped, nil
}

// Cross flips the outside snapshots of a tick as the price moves through it
// and returns the signed liquidity to apply when entering from the left.
func (r *Registry) Cross(
	tick int64,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int,
	secondsPerLiquidityCumulativeX128 *uint256.Int,
	tickCumulative int64,
	now uint32,
) *big.Int {
	info, ok := r.ticks[tick]
	if !ok {
		return new(big.Int)
	}

	info.FeeGrowthOutside0X128.Sub(feeGrowthGlobal0X128, info.FeeGrowthOutside0X128)
	info.FeeGrowthOutside1X128.Sub(feeGrowthGlobal1X128, info.FeeGrowthOutside1X128)
	info.SecondsPerLiquidityOutsideX128.Sub(secondsPerLiquidityCumulativeX128, info.SecondsPerLiquidityOutsideX128)
	info.TickCumulativeOutside = tickCumulative - info.TickCumulativeOutside
	info.SecondsOutside = now - info.SecondsOutside

	return new(big.Int).Set(info.LiquidityNet)
}

// Clear removes all state for a tick. Called after a burn flips the tick
// off.
func (r *Registry) Clear(tick int64) {
	delete(r.ticks, tick)
}

// FeeGrowthInside computes the fee growth accumulated strictly inside
// [lowerTick, upperTick] for both tokens, using wrapping subtraction.
func (r *Registry) FeeGrowthInside(
	lowerTick, upperTick, currentTick int64,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int,
) (*uint256.Int, *uint256.Int) {
	lower, lowerOK := r.ticks[lowerTick]
	upper, upperOK := r.ticks[upperTick]

	below0, below1 := new(uint256.Int), new(uint256.Int)
	if lowerOK {
		if currentTick >= lowerTick {
			below0.Set(lower.FeeGrowthOutside0X128)
			below1.Set(lower.FeeGrowthOutside1X128)
		} else {
			below0.Sub(feeGrowthGlobal0X128, lower.FeeGrowthOutside0X128)
			below1.Sub(feeGrowthGlobal1X128, lower.FeeGrowthOutside1X128)
		}
	}

	above0, above1 := new(uint256.Int), new(uint256.Int)
	if upperOK {
		if currentTick < upperTick {
			above0.Set(upper.FeeGrowthOutside0X128)
			above1.Set(upper.FeeGrowthOutside1X128)
		} else {
			above0.Sub(feeGrowthGlobal0X128, upper.FeeGrowthOutside0X128)
			above1.Sub(feeGrowthGlobal1X128, upper.FeeGrowthOutside1X128)
		}
	}

	inside0 := new(uint256.Int).Sub(feeGrowthGlobal0X128, below0)
	inside0.Sub(inside0, above0)
	inside1 := new(uint256.Int).Sub(feeGrowthGlobal1X128, below1)
	inside1.Sub(inside1, above1)
	return inside0, inside1
}
