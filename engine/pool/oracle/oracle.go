package oracle

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// MaxCardinality bounds the observation ring size.
const MaxCardinality = 65535

var (
	ErrNotInitialized     = errors.New("oracle is not initialized")
	ErrTargetTooOld       = errors.New("requested time predates the oldest observation")
	ErrInvalidCardinality = errors.New("cardinality must grow and stay within bounds")
)

// Observation is one entry of the ring: the running cumulatives as of a
// block timestamp.
type Observation struct {
	BlockTimestamp                    uint32
	TickCumulative                    int64
	SecondsPerLiquidityCumulativeX128 *uint256.Int
	Initialized                       bool
}

// transform rolls an observation forward to a later timestamp under a
// constant tick and liquidity. The cumulatives wrap on overflow.
func transform(last Observation, time uint32, tick int64, liquidity *big.Int) Observation {
	delta := uint64(time - last.BlockTimestamp)

	spl := new(uint256.Int).Lsh(uint256.NewInt(delta), 128)
	liq := uint256.NewInt(1)
	if liquidity.Sign() > 0 {
		liq = uint256.MustFromBig(liquidity)
	}
	spl.Div(spl, liq)
	spl.Add(spl, last.SecondsPerLiquidityCumulativeX128)

	return Observation{
		BlockTimestamp:                    time,
		TickCumulative:                    last.TickCumulative + tick*int64(delta),
		SecondsPerLiquidityCumulativeX128: spl,
		Initialized:                       true,
	}
}

// Oracle is the per-pool circular buffer of observations.
type Oracle struct {
	observations []Observation
	index        int
	cardinality  int
	// cardinalityNext takes effect when the ring wraps into the grown
	// region.
	cardinalityNext int
}

// New returns an oracle that must be initialized before use.
func New() *Oracle {
	return &Oracle{}
}

// Initialize seeds the ring with a zero observation at the given time.
func (o *Oracle) Initialize(time uint32) {
	o.observations = []Observation{{
		BlockTimestamp:                    time,
		SecondsPerLiquidityCumulativeX128: new(uint256.Int),
		Initialized:                       true,
	}}
	o.index = 0
	o.cardinality = 1
	o.cardinalityNext = 1
}

func (o *Oracle) Cardinality() int     { return o.cardinality }
func (o *Oracle) CardinalityNext() int { return o.cardinalityNext }

// Grow raises the target ring size. A request that does not grow the ring
// is a no-op; the ring only uses the new slots once the write index wraps
// into them.
func (o *Oracle) Grow(next int) error {
	if o.cardinality == 0 {
		return ErrNotInitialized
	}
	if next > MaxCardinality {
		return ErrInvalidCardinality
	}
	if next <= o.cardinalityNext {
		return nil
	}
	for len(o.observations) < next {
		o.observations = append(o.observations, Observation{
			SecondsPerLiquidityCumulativeX128: new(uint256.Int),
		})
	}
	o.cardinalityNext = next
	return nil
}

// Write records the running cumulatives at the given time. Repeated writes
// within one timestamp are no-ops; tick and liquidity are the values that
// held since the previous observation.
func (o *Oracle) Write(time uint32, tick int64, liquidity *big.Int) bool {
	if o.cardinality == 0 {
		return false
	}

	last := o.observations[o.index]
	if last.BlockTimestamp == time {
		return false
	}

	if o.cardinalityNext > o.cardinality && o.index == o.cardinality-1 {
		o.cardinality = o.cardinalityNext
	}

	next := (o.index + 1) % o.cardinality
	o.observations[next] = transform(last, time, tick, liquidity)
	o.index = next
	return true
}

// Observe returns the cumulatives as of (now - secondsAgo). secondsAgo of
// zero means now; times between observations interpolate linearly, and
// times past the newest observation extrapolate at the current tick and
// liquidity.
func (o *Oracle) Observe(now uint32, secondsAgo uint32, tick int64, liquidity *big.Int) (int64, *uint256.Int, error) {
	if o.cardinality == 0 {
		return 0, nil, ErrNotInitialized
	}

	if secondsAgo == 0 {
		last := o.observations[o.index]
		if last.BlockTimestamp != now {
			last = transform(last, now, tick, liquidity)
		}
		return last.TickCumulative, last.SecondsPerLiquidityCumulativeX128, nil
	}

	target := now - secondsAgo

	last := o.observations[o.index]
	if lte(now, last.BlockTimestamp, target) {
		if last.BlockTimestamp == target {
			return last.TickCumulative, last.SecondsPerLiquidityCumulativeX128, nil
		}
		at := transform(last, target, tick, liquidity)
		return at.TickCumulative, at.SecondsPerLiquidityCumulativeX128, nil
	}

	oldest := o.observations[(o.index+1)%o.cardinality]
	if !oldest.Initialized {
		oldest = o.observations[0]
	}
	if !lte(now, oldest.BlockTimestamp, target) {
		return 0, nil, ErrTargetTooOld
	}

	beforeOrAt, atOrAfter := o.surrounding(now, target)

	if beforeOrAt.BlockTimestamp == target {
		return beforeOrAt.TickCumulative, beforeOrAt.SecondsPerLiquidityCumulativeX128, nil
	}
	if atOrAfter.BlockTimestamp == target {
		return atOrAfter.TickCumulative, atOrAfter.SecondsPerLiquidityCumulativeX128, nil
	}

	// Linear interpolation between the two bracketing observations.
	span := int64(uint64(atOrAfter.BlockTimestamp - beforeOrAt.BlockTimestamp))
	elapsed := int64(uint64(target - beforeOrAt.BlockTimestamp))

	tickCum := beforeOrAt.TickCumulative +
		(atOrAfter.TickCumulative-beforeOrAt.TickCumulative)/span*elapsed

	splDiff := new(uint256.Int).Sub(atOrAfter.SecondsPerLiquidityCumulativeX128, beforeOrAt.SecondsPerLiquidityCumulativeX128)
	splDiff.Mul(splDiff, uint256.NewInt(uint64(elapsed)))
	splDiff.Div(splDiff, uint256.NewInt(uint64(span)))
	spl := new(uint256.Int).Add(beforeOrAt.SecondsPerLiquidityCumulativeX128, splDiff)

	return tickCum, spl, nil
}

// surrounding finds the pair of initialized observations bracketing target
// by binary search over the time-ordered ring.
func (o *Oracle) surrounding(now, target uint32) (Observation, Observation) {
	l := (o.index + 1) % o.cardinality
	r := l + o.cardinality - 1

	var beforeOrAt, atOrAfter Observation
	for l <= r {
		i := (l + r) / 2
		beforeOrAt = o.observations[i%o.cardinality]
		if !beforeOrAt.Initialized {
			l = i + 1
			continue
		}

		atOrAfter = o.observations[(i+1)%o.cardinality]

		if lte(now, beforeOrAt.BlockTimestamp, target) {
			if lte(now, target, atOrAfter.BlockTimestamp) {
				return beforeOrAt, atOrAfter
			}
			l = i + 1
			continue
		}
		r = i - 1
	}
	return beforeOrAt, atOrAfter
}

// lte compares two timestamps in the wrapping uint32 domain, treating now
// as the most recent point.
func lte(now, a, b uint32) bool {
	if a <= now && b <= now {
		return a <= b
	}
	aAdj := uint64(a)
	if a <= now {
		aAdj += 1 << 32
	}
	bAdj := uint64(b)
	if b <= now {
		bAdj += 1 << 32
	}
	return aAdj <= bAdj
}
