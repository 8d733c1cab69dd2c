package safemath

import (
	"errors"
	"math"
	"math/bits"
)

var (
	ErrOverflow  = errors.New("ErrOverflow")
	ErrUnderflow = errors.New("ErrUnderflow")
)

func CheckedAddU64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

func CheckedSubU64(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrUnderflow
	}
	return diff, nil
}

func CheckedMulU64(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

func SaturatingAddU64(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

func SaturatingSubU64(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// MulDivCeilU64 computes ceil(a*b/d) with a 128-bit intermediate, saturating
// at MaxUint64 when the quotient does not fit.
func MulDivCeilU64(a, b, d uint64) uint64 {
	if d == 0 {
		panic("division by zero")
	}
	hi, lo := bits.Mul64(a, b)
	lo, carry := bits.Add64(lo, d-1, 0)
	hi += carry
	if hi >= d {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, d)
	return q
}
