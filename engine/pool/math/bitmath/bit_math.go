package bitmath

import (
	"errors"
	"math/bits"

	"github.com/holiman/uint256"
)

// ErrInputIsZero is returned when a function requires a non-zero input but receives zero.
var ErrInputIsZero = errors.New("input must be greater than zero")

// MostSignificantBit returns the index of the most significant set bit of x,
// where the least significant bit is at index 0.
//
// The function satisfies the property: x >= 2**msb(x) and x < 2**(msb(x)+1)
func MostSignificantBit(x *uint256.Int) (uint, error) {
	if x.IsZero() {
		return 0, ErrInputIsZero
	}
	return uint(x.BitLen() - 1), nil
}

// LeastSignificantBit returns the index of the least significant set bit of x,
// where the least significant bit is at index 0.
//
// The function satisfies the property: (x & 2**lsb(x)) != 0
func LeastSignificantBit(x *uint256.Int) (uint, error) {
	if x.IsZero() {
		return 0, ErrInputIsZero
	}
	for i := 0; i < 4; i++ {
		if x[i] != 0 {
			return uint(i*64 + bits.TrailingZeros64(x[i])), nil
		}
	}
	return 0, ErrInputIsZero
}
