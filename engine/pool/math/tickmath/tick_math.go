package tickmath

import (
	"errors"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
)

var (
	// MIN_TICK is the minimum tick that may be passed to GetSqrtRatioAtTick.
	MIN_TICK = int64(-887272)
	// MAX_TICK is the maximum tick that may be passed to GetSqrtRatioAtTick.
	MAX_TICK = int64(887272)

	// MIN_SQRT_RATIO is the sqrt price at MIN_TICK.
	MIN_SQRT_RATIO, _ = new(big.Int).SetString("4295128739", 10)
	// MAX_SQRT_RATIO is the sqrt price at MAX_TICK.
	MAX_SQRT_RATIO, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)

	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")

	one        = uint256.NewInt(1)
	roundMask  = uint256.NewInt(0xffffffff)
	maxUint256 = new(uint256.Int).Not(uint256.NewInt(0))

	// unitX128 is 1 in UQ128.128, the starting ratio for even ticks.
	unitX128 = mustHex("0x100000000000000000000000000000000")

	// sqrtFactors[i] is sqrt(1.0001^(2^i)) in UQ128.128, for i in 0..19.
	sqrtFactors = [20]*uint256.Int{
		mustHex("0xfffcb933bd6fad37aa2d162d1a594001"),
		mustHex("0xfff97272373d413259a46990580e213a"),
		mustHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		mustHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		mustHex("0xffcb9843d60f6159c9db58835c926644"),
		mustHex("0xff973b41fa98c081472e6896dfb254c0"),
		mustHex("0xff2ea16466c96a3843ec78b326b52861"),
		mustHex("0xfe5dee046a99a2a811c461f1969c3053"),
		mustHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		mustHex("0xf987a7253ac413176f2b074cf7815e54"),
		mustHex("0xf3392b0822b70005940c7a398e4b70f3"),
		mustHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		mustHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		mustHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		mustHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		mustHex("0x31be135f97d08fd981231505542fcfa6"),
		mustHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		mustHex("0x5d6af8dedb81196699c329225ee604"),
		mustHex("0x2216e584f5fa1ea926041bedfe98"),
		mustHex("0x48a170391f7dc42444e8fa2"),
	}
)

// scratch holds reusable integers so the hot path does not allocate.
type scratch struct {
	ratio *uint256.Int
	rem   *uint256.Int
	probe *big.Int
}

var scratchPool = sync.Pool{
	New: func() any {
		return &scratch{
			ratio: new(uint256.Int),
			rem:   new(uint256.Int),
			probe: new(big.Int),
		}
	},
}

// GetSqrtRatioAtTick writes sqrt(1.0001^tick) * 2^96 into dest.
//
// The ratio is assembled in UQ128.128 by multiplying together the
// precomputed sqrt factors selected by the set bits of |tick|, taking the
// reciprocal for positive ticks, then shifting down to Q64.96 with
// round-up.
func GetSqrtRatioAtTick(dest *big.Int, tick int64) error {
	if tick < MIN_TICK || tick > MAX_TICK {
		return ErrTickOutOfBounds
	}

	sc := scratchPool.Get().(*scratch)
	defer scratchPool.Put(sc)

	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	sc.ratio.Set(unitX128)
	for i := 0; i < len(sqrtFactors); i++ {
		if absTick&(1<<i) != 0 {
			sc.ratio.Mul(sc.ratio, sqrtFactors[i]).Rsh(sc.ratio, 128)
		}
	}

	if tick > 0 {
		sc.ratio.Div(maxUint256, sc.ratio)
	}

	// Shift from 128 to 96 fractional bits, rounding up so the result
	// round-trips through GetTickAtSqrtRatio.
	sc.rem.And(sc.ratio, roundMask)
	sc.ratio.Rsh(sc.ratio, 32)
	if sc.rem.Sign() > 0 {
		sc.ratio.Add(sc.ratio, one)
	}

	sc.ratio.IntoBig(&dest)
	return nil
}

// GetTickAtSqrtRatio returns the greatest tick such that
// GetSqrtRatioAtTick(tick) <= sqrtPriceX96, found by binary search over the
// valid tick range.
func GetTickAtSqrtRatio(sqrtPriceX96 *big.Int) (int64, error) {
	if sqrtPriceX96.Cmp(MIN_SQRT_RATIO) < 0 || sqrtPriceX96.Cmp(MAX_SQRT_RATIO) >= 0 {
		return 0, ErrSqrtPriceOutOfBounds
	}

	sc := scratchPool.Get().(*scratch)
	defer scratchPool.Put(sc)

	low, high := MIN_TICK, MAX_TICK
	var tick int64

	for low <= high {
		mid := (low + high) / 2
		if err := GetSqrtRatioAtTick(sc.probe, mid); err != nil {
			return 0, err
		}
		if sc.probe.Cmp(sqrtPriceX96) <= 0 {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	return tick, nil
}

func mustHex(s string) *uint256.Int {
	n, err := uint256.FromHex(s)
	if err != nil {
		panic(err)
	}
	return n
}
