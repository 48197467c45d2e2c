// Package quant implements the integer requantization math used to convert
// int32 accumulator values into the quantized int8 output range. The
// semantics follow the gemmlowp fixed-point reference: results are bit-exact
// with the portable quantized kernels, with no floating point anywhere.
package quant

import "math"

// SaturatingRoundingDoublingHighMul returns the high 32 bits of 2*a*b with
// rounding. The single overflow case, a == b == math.MinInt32, saturates to
// math.MaxInt32.
func SaturatingRoundingDoublingHighMul(a, b int32) int32 {
	if a == math.MinInt32 && b == math.MinInt32 {
		return math.MaxInt32
	}
	ab := int64(a) * int64(b)
	nudge := int64(1 << 30)
	if ab < 0 {
		nudge = 1 - (1 << 30)
	}
	// Truncating division, not an arithmetic shift: the two differ for
	// negative products and the reference kernels truncate.
	return int32((ab + nudge) / (1 << 31))
}

// RoundingDivideByPOT divides by 2^exponent with round-to-nearest,
// ties away from zero. exponent must be in [0, 31].
func RoundingDivideByPOT(x int32, exponent int) int32 {
	mask := int32(1)<<exponent - 1
	remainder := x & mask
	threshold := mask >> 1
	if x < 0 {
		threshold++
	}
	result := x >> exponent
	if remainder > threshold {
		result++
	}
	return result
}

// MultiplyByQuantizedMultiplier scales an accumulator by the per-channel
// quantized multiplier and shift. A positive shift is applied as a left
// shift before the fixed-point multiply; a negative shift as a rounding
// right shift after it.
func MultiplyByQuantizedMultiplier(x int32, multiplier int32, shift int32) int32 {
	leftShift := shift
	if leftShift < 0 {
		leftShift = 0
	}
	rightShift := -shift
	if rightShift < 0 {
		rightShift = 0
	}
	return RoundingDivideByPOT(
		SaturatingRoundingDoublingHighMul(x<<uint(leftShift), multiplier),
		int(rightShift))
}

// Clamp limits x to the inclusive range [lo, hi]
func Clamp(x, lo, hi int32) int32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
