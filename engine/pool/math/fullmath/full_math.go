package fullmath

import (
	"errors"
	"math/big"
)

var (
	// Q96 is the UQ64.96 fixed-point number representing 1.
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)
	// Q128 is the UQ128.128 fixed-point number representing 1.
	Q128 = new(big.Int).Lsh(big.NewInt(1), 128)

	// MaxUint128 is the maximum value for a uint128 (2^128 - 1).
	MaxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	// MaxUint256 is the maximum value for a uint256 (2^256 - 1).
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	ErrDenominatorZero = errors.New("denominator must be greater than zero")
	ErrResultOverflow  = errors.New("result does not fit in 256 bits")

	one = big.NewInt(1)
)

// MulDiv writes floor(a * b / denominator) into dest. The double-width
// product is formed in full, so a*b may exceed 256 bits as long as the
// quotient does not.
func MulDiv(dest, a, b, denominator *big.Int) error {
	if denominator.Sign() <= 0 {
		return ErrDenominatorZero
	}
	product := new(big.Int).Mul(a, b)
	dest.Quo(product, denominator)
	if dest.Cmp(MaxUint256) > 0 {
		return ErrResultOverflow
	}
	return nil
}

// MulDivRoundingUp writes ceil(a * b / denominator) into dest.
func MulDivRoundingUp(dest, a, b, denominator *big.Int) error {
	if denominator.Sign() <= 0 {
		return ErrDenominatorZero
	}
	product := new(big.Int).Mul(a, b)
	rem := new(big.Int)
	dest.QuoRem(product, denominator, rem)
	if rem.Sign() > 0 {
		dest.Add(dest, one)
	}
	if dest.Cmp(MaxUint256) > 0 {
		return ErrResultOverflow
	}
	return nil
}

// DivRoundingUp writes ceil(a / b) into dest.
func DivRoundingUp(dest, a, b *big.Int) error {
	if b.Sign() <= 0 {
		return ErrDenominatorZero
	}
	rem := new(big.Int)
	dest.QuoRem(a, b, rem)
	if rem.Sign() > 0 {
		dest.Add(dest, one)
	}
	return nil
}
