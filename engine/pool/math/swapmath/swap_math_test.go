package swapmath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickdex/tickdex-engine-go/engine/pool/math/fullmath"
)

var e18 = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func pct(p int64) *big.Int {
	out := new(big.Int).Mul(fullmath.Q96, big.NewInt(p))
	return out.Quo(out, big.NewInt(100))
}

func TestComputeSwapStepExactInReachesTarget(t *testing.T) {
	current := pct(100)
	target := pct(99)
	liquidity := new(big.Int).Mul(e18, big.NewInt(2))
	remaining := new(big.Int).Mul(e18, e18) // far more than the range needs

	step, err := ComputeSwapStep(current, target, liquidity, remaining, 3000)
	require.NoError(t, err)

	assert.Equal(t, 0, step.SqrtRatioNextX96.Cmp(target), "price stops at the target")
	assert.True(t, step.AmountIn.Sign() > 0)
	assert.True(t, step.AmountOut.Sign() > 0)
	assert.True(t, step.FeeAmount.Sign() > 0)

	consumed := new(big.Int).Add(step.AmountIn, step.FeeAmount)
	assert.True(t, consumed.Cmp(remaining) < 0, "partial consumption when the target bounds the step")
}

func TestComputeSwapStepExactInExhaustsInput(t *testing.T) {
	current := pct(100)
	target := pct(50)
	liquidity := new(big.Int).Mul(e18, big.NewInt(2))
	remaining := big.NewInt(1_000_000)

	step, err := ComputeSwapStep(current, target, liquidity, remaining, 3000)
	require.NoError(t, err)

	assert.Equal(t, -1, target.Cmp(step.SqrtRatioNextX96), "input runs out before the target")
	assert.Equal(t, 1, current.Cmp(step.SqrtRatioNextX96), "price still moves down")

	// Everything the movement did not use is fee: in + fee == remaining.
	consumed := new(big.Int).Add(step.AmountIn, step.FeeAmount)
	assert.Equal(t, 0, consumed.Cmp(remaining))
}

func TestComputeSwapStepExactOutCapped(t *testing.T) {
	current := pct(100)
	target := pct(99)
	liquidity := new(big.Int).Mul(e18, big.NewInt(2))
	requested := big.NewInt(1_000)
	remaining := new(big.Int).Neg(requested)

	step, err := ComputeSwapStep(current, target, liquidity, remaining, 3000)
	require.NoError(t, err)

	assert.True(t, step.AmountOut.Cmp(requested) <= 0, "never pays out more than requested")
	assert.True(t, step.FeeAmount.Sign() > 0)
}

func TestComputeSwapStepDirectionFromPrices(t *testing.T) {
	liquidity := new(big.Int).Mul(e18, big.NewInt(2))
	remaining := big.NewInt(1_000_000)

	// Target above current means one-for-zero: token1 in, token0 out.
	step, err := ComputeSwapStep(pct(100), pct(101), liquidity, remaining, 500)
	require.NoError(t, err)
	assert.True(t, step.SqrtRatioNextX96.Cmp(pct(100)) > 0, "price moves up")
}

func TestComputeSwapStepZeroFee(t *testing.T) {
	current := pct(100)
	target := pct(99)
	liquidity := new(big.Int).Mul(e18, big.NewInt(2))
	remaining := new(big.Int).Mul(e18, e18)

	step, err := ComputeSwapStep(current, target, liquidity, remaining, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, step.FeeAmount.Sign())
}
