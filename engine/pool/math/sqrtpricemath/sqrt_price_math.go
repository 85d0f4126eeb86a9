package sqrtpricemath

import (
	"errors"
	"math/big"

	"github.com/tickdex/tickdex-engine-go/engine/pool/math/fullmath"
)

// Resolution is the number of fractional bits in the Q64.96 format.
const Resolution = uint(96)

var (
	ErrLiquidityZero  = errors.New("liquidity must be greater than zero")
	ErrSqrtPriceZero  = errors.New("sqrt price must be greater than zero")
	ErrPriceUnderflow = errors.New("price movement exceeds available range")
)

// GetNextSqrtPriceFromAmount0RoundingUp writes the price after adding or
// removing a delta of token0 into dest. Rounds up so the pool never gives
// out more than it should.
func GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amount *big.Int, add bool) error {
	if amount.Sign() == 0 {
		dest.Set(sqrtPX96)
		return nil
	}

	numerator1 := new(big.Int).Lsh(liquidity, Resolution)
	product := new(big.Int).Mul(amount, sqrtPX96)

	if add {
		denominator := new(big.Int).Add(numerator1, product)
		return fullmath.MulDivRoundingUp(dest, numerator1, sqrtPX96, denominator)
	}

	if numerator1.Cmp(product) <= 0 {
		return ErrPriceUnderflow
	}
	denominator := new(big.Int).Sub(numerator1, product)
	return fullmath.MulDivRoundingUp(dest, numerator1, sqrtPX96, denominator)
}

// GetNextSqrtPriceFromAmount1RoundingDown writes the price after adding or
// removing a delta of token1 into dest. Rounds down, again in the pool's
// favor.
func GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amount *big.Int, add bool) error {
	quotient := new(big.Int)
	if add {
		if err := fullmath.MulDiv(quotient, amount, fullmath.Q96, liquidity); err != nil {
			return err
		}
		dest.Add(sqrtPX96, quotient)
		return nil
	}

	if err := fullmath.MulDivRoundingUp(quotient, amount, fullmath.Q96, liquidity); err != nil {
		return err
	}
	if sqrtPX96.Cmp(quotient) <= 0 {
		return ErrPriceUnderflow
	}
	dest.Sub(sqrtPX96, quotient)
	return nil
}

// GetNextSqrtPriceFromInput writes the price after spending amountIn of the
// input token into dest.
func GetNextSqrtPriceFromInput(dest, sqrtPX96, liquidity, amountIn *big.Int, zeroForOne bool) error {
	if sqrtPX96.Sign() <= 0 {
		return ErrSqrtPriceZero
	}
	if liquidity.Sign() <= 0 {
		return ErrLiquidityZero
	}

	if zeroForOne {
		return GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amountIn, true)
	}
	return GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput writes the price after paying out amountOut of
// the output token into dest.
func GetNextSqrtPriceFromOutput(dest, sqrtPX96, liquidity, amountOut *big.Int, zeroForOne bool) error {
	if sqrtPX96.Sign() <= 0 {
		return ErrSqrtPriceZero
	}
	if liquidity.Sign() <= 0 {
		return ErrLiquidityZero
	}

	if zeroForOne {
		return GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amountOut, false)
	}
	return GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amountOut, false)
}

// GetAmount0Delta writes the token0 amount covering the price range
// [sqrtRatioAX96, sqrtRatioBX96] at the given liquidity into dest. The two
// prices may be passed in either order.
func GetAmount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) error {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.Sign() <= 0 {
		return ErrSqrtPriceZero
	}

	numerator1 := new(big.Int).Lsh(liquidity, Resolution)
	numerator2 := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	term := new(big.Int)

	if roundUp {
		if err := fullmath.MulDivRoundingUp(term, numerator1, numerator2, sqrtRatioBX96); err != nil {
			return err
		}
		return fullmath.DivRoundingUp(dest, term, sqrtRatioAX96)
	}

	if err := fullmath.MulDiv(term, numerator1, numerator2, sqrtRatioBX96); err != nil {
		return err
	}
	dest.Quo(term, sqrtRatioAX96)
	return nil
}

// GetAmount1Delta writes the token1 amount covering the price range
// [sqrtRatioAX96, sqrtRatioBX96] at the given liquidity into dest.
func GetAmount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) error {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	diff := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		return fullmath.MulDivRoundingUp(dest, liquidity, diff, fullmath.Q96)
	}
	return fullmath.MulDiv(dest, liquidity, diff, fullmath.Q96)
}
