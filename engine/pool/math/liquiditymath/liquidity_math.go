package liquiditymath

import (
	"errors"
	"math/big"

	"github.com/tickdex/tickdex-engine-go/engine/pool/math/fullmath"
)

var (
	ErrLiquidityOverflow  = errors.New("liquidity overflow")
	ErrLiquidityUnderflow = errors.New("liquidity underflow")
)

// AddDelta adds a signed liquidity delta to an unsigned liquidity value.
// The result must stay within [0, 2^128).
func AddDelta(dest, x, y *big.Int) error {
	dest.Add(x, y)
	if dest.Sign() < 0 {
		return ErrLiquidityUnderflow
	}
	if dest.Cmp(fullmath.MaxUint128) > 0 {
		return ErrLiquidityOverflow
	}
	return nil
}

// GetLiquidityForAmount0 writes the largest liquidity fundable with amount0
// over the price range [sqrtRatioAX96, sqrtRatioBX96] into dest.
func GetLiquidityForAmount0(dest, sqrtRatioAX96, sqrtRatioBX96, amount0 *big.Int) error {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	intermediate := new(big.Int)
	if err := fullmath.MulDiv(intermediate, sqrtRatioAX96, sqrtRatioBX96, fullmath.Q96); err != nil {
		return err
	}
	diff := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	if err := fullmath.MulDiv(dest, amount0, intermediate, diff); err != nil {
		return err
	}
	if dest.Cmp(fullmath.MaxUint128) > 0 {
		return ErrLiquidityOverflow
	}
	return nil
}

// GetLiquidityForAmount1 writes the largest liquidity fundable with amount1
// over the price range [sqrtRatioAX96, sqrtRatioBX96] into dest.
func GetLiquidityForAmount1(dest, sqrtRatioAX96, sqrtRatioBX96, amount1 *big.Int) error {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	diff := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	if err := fullmath.MulDiv(dest, amount1, fullmath.Q96, diff); err != nil {
		return err
	}
	if dest.Cmp(fullmath.MaxUint128) > 0 {
		return ErrLiquidityOverflow
	}
	return nil
}

// GetLiquidityForAmounts writes the largest liquidity fundable with both
// token amounts at the current price into dest. Only the binding side
// constrains the result when the current price sits inside the range.
func GetLiquidityForAmounts(dest, sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1 *big.Int) error {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	if sqrtRatioX96.Cmp(sqrtRatioAX96) <= 0 {
		return GetLiquidityForAmount0(dest, sqrtRatioAX96, sqrtRatioBX96, amount0)
	}

	if sqrtRatioX96.Cmp(sqrtRatioBX96) < 0 {
		liquidity0 := new(big.Int)
		liquidity1 := new(big.Int)
		if err := GetLiquidityForAmount0(liquidity0, sqrtRatioX96, sqrtRatioBX96, amount0); err != nil {
			return err
		}
		if err := GetLiquidityForAmount1(liquidity1, sqrtRatioAX96, sqrtRatioX96, amount1); err != nil {
			return err
		}
		if liquidity0.Cmp(liquidity1) < 0 {
			dest.Set(liquidity0)
		} else {
			dest.Set(liquidity1)
		}
		return nil
	}

	return GetLiquidityForAmount1(dest, sqrtRatioAX96, sqrtRatioBX96, amount1)
}
