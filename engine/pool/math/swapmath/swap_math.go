package swapmath

import (
	"math/big"

	"github.com/tickdex/tickdex-engine-go/engine/pool/math/fullmath"
	"github.com/tickdex/tickdex-engine-go/engine/pool/math/sqrtpricemath"
)

// FeeDenominator expresses fees in parts per million; 1_000_000 is 100%.
var FeeDenominator = big.NewInt(1_000_000)

// Step is the outcome of swapping within a single tick range.
type Step struct {
	// SqrtRatioNextX96 is the price after the step, clamped to the target.
	SqrtRatioNextX96 *big.Int
	// AmountIn is the input consumed by the step, fee excluded.
	AmountIn *big.Int
	// AmountOut is the output produced by the step.
	AmountOut *big.Int
	// FeeAmount is the fee taken on the input.
	FeeAmount *big.Int
}

// ComputeSwapStep advances a swap as far as the target price allows.
// amountRemaining is positive for exact-input swaps and negative for
// exact-output swaps, matching the sign convention of the swap entry point.
func ComputeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *big.Int, feePips uint32) (Step, error) {
	step := Step{
		SqrtRatioNextX96: new(big.Int),
		AmountIn:         new(big.Int),
		AmountOut:        new(big.Int),
		FeeAmount:        new(big.Int),
	}

	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0
	exactIn := amountRemaining.Sign() >= 0
	fee := big.NewInt(int64(feePips))
	feeComplement := new(big.Int).Sub(FeeDenominator, fee)

	var amountRemainingAbs *big.Int

	if exactIn {
		amountRemainingLessFee := new(big.Int)
		if err := fullmath.MulDiv(amountRemainingLessFee, amountRemaining, feeComplement, FeeDenominator); err != nil {
			return Step{}, err
		}

		var err error
		if zeroForOne {
			err = sqrtpricemath.GetAmount0Delta(step.AmountIn, sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
		} else {
			err = sqrtpricemath.GetAmount1Delta(step.AmountIn, sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
		}
		if err != nil {
			return Step{}, err
		}

		if amountRemainingLessFee.Cmp(step.AmountIn) >= 0 {
			step.SqrtRatioNextX96.Set(sqrtRatioTargetX96)
		} else if err := sqrtpricemath.GetNextSqrtPriceFromInput(step.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, amountRemainingLessFee, zeroForOne); err != nil {
			return Step{}, err
		}
	} else {
		amountRemainingAbs = new(big.Int).Neg(amountRemaining)

		var err error
		if zeroForOne {
			err = sqrtpricemath.GetAmount1Delta(step.AmountOut, sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false)
		} else {
			err = sqrtpricemath.GetAmount0Delta(step.AmountOut, sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false)
		}
		if err != nil {
			return Step{}, err
		}

		if amountRemainingAbs.Cmp(step.AmountOut) >= 0 {
			step.SqrtRatioNextX96.Set(sqrtRatioTargetX96)
		} else if err := sqrtpricemath.GetNextSqrtPriceFromOutput(step.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, amountRemainingAbs, zeroForOne); err != nil {
			return Step{}, err
		}
	}

	reachedTarget := sqrtRatioTargetX96.Cmp(step.SqrtRatioNextX96) == 0

	// Recompute both legs from the actual price movement; the leg already
	// fixed above is kept as-is when the target was reached.
	if zeroForOne {
		if !(reachedTarget && exactIn) {
			if err := sqrtpricemath.GetAmount0Delta(step.AmountIn, step.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true); err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			if err := sqrtpricemath.GetAmount1Delta(step.AmountOut, step.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false); err != nil {
				return Step{}, err
			}
		}
	} else {
		if !(reachedTarget && exactIn) {
			if err := sqrtpricemath.GetAmount1Delta(step.AmountIn, sqrtRatioCurrentX96, step.SqrtRatioNextX96, liquidity, true); err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			if err := sqrtpricemath.GetAmount0Delta(step.AmountOut, sqrtRatioCurrentX96, step.SqrtRatioNextX96, liquidity, false); err != nil {
				return Step{}, err
			}
		}
	}

	// Never pay out more than the exact-output request.
	if !exactIn && step.AmountOut.Cmp(amountRemainingAbs) > 0 {
		step.AmountOut.Set(amountRemainingAbs)
	}

	if exactIn && !reachedTarget {
		// The whole remainder is consumed; whatever the movement did not
		// use becomes the fee.
		step.FeeAmount.Sub(amountRemaining, step.AmountIn)
	} else if err := fullmath.MulDivRoundingUp(step.FeeAmount, step.AmountIn, fee, feeComplement); err != nil {
		return Step{}, err
	}

	return step, nil
}
