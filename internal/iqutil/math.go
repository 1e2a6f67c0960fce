// Package iqutil provides the numeric helpers shared by every IQ module:
// clamping, rounding, tolerant float comparison, the split integer/fraction
// bilinear blend, and the trigger-region resolver that picks which
// calibration regions bracket a runtime trigger value.
package iqutil

import (
	"cmp"
	"math"
)

// floatEqualEpsilon is the tolerance used by FloatEqual.
const floatEqualEpsilon = 1e-9

// fractionScale lifts the fractional part of an operand before blending so
// that the integer part does not swamp it.
const fractionScale = 1000000.0

// Clamp limits v to [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AbsInt returns the absolute value of v.
func AbsInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// AbsFloat returns the absolute value of v.
func AbsFloat(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// RoundToInt rounds half away from zero.
func RoundToInt(v float32) int {
	return int(math.Round(float64(v)))
}

// QuantizeToUint16 rounds v, takes its magnitude and clamps it to [lo, hi].
// A negative blend result therefore maps to its absolute value, not 0.
func QuantizeToUint16(v float32, lo, hi uint32) uint16 {
	r := AbsInt(RoundToInt(v))
	return uint16(Clamp(uint32(r), lo, hi))
}

// FloatEqual reports whether a and b are equal within 1e-9.
func FloatEqual(a, b float32) bool {
	return math.Abs(float64(a)-float64(b)) < floatEqualEpsilon
}

// CalculateInterpolationRatio returns where value sits between start and
// end. The interval is half open: value < start gives 0, value >= end
// gives 1.
func CalculateInterpolationRatio(value, start, end float64) float32 {
	switch {
	case value < start:
		return 0
	case value >= end:
		return 1
	default:
		return float32((value - start) / (end - start))
	}
}

// BilinearInterpolate returns a + ratio*(b-a).
//
// The integer and fractional parts of the operands are blended separately,
// with the fractional parts scaled up by 1e6, and then summed. Large
// calibration values therefore keep their fractional precision.
func BilinearInterpolate(a, b, ratio float32) float32 {
	ai := int32(a)
	bi := int32(b)

	af := float64(a-float32(ai)) * fractionScale
	bf := float64(b-float32(bi)) * fractionScale
	r := float64(ratio)

	frac := float32(af+r*(bf-af)) / fractionScale
	whole := float32(float64(ai) + r*float64(bi-ai))

	return whole + frac
}

// NearestNeighbour picks a or b, whichever the ratio is closer to. Ties go
// to b.
func NearestNeighbour(a, b, ratio float32) float32 {
	if ratio+0.5 >= 1.0 {
		return b
	}
	return a
}
