// Package fastmath provides float32 transcendental approximations used on
// the denoise hot path.
package fastmath

import "math"

const (
	ln2Hi  float32 = 0.693359375
	ln2Lo  float32 = -2.12194440e-4
	invLn2 float32 = 1.44269504088896341

	expOverflow  float32 = 88.72283905206835
	expUnderflow float32 = -87.33654475055310

	c2 float32 = 0.5
	c3 float32 = 0.16666666666666666
	c4 float32 = 0.041666666666666664
	c5 float32 = 0.008333333333333333
	c6 float32 = 0.001388888888888889
)

// ExpTolerance is the maximum relative error of Exp against math.Exp over
// the range the denoise kernel evaluates (x <= 0).
const ExpTolerance = 2e-6

// Exp approximates e^x in float32.
//
// Algorithm:
//  1. Range reduction: x = k*ln(2) + r, |r| <= ln(2)/2
//  2. Degree-6 Horner polynomial for e^r
//  3. Reconstruction: e^x = 2^k * e^r via the IEEE 754 exponent field
//
// Exp(0) is exactly 1. NaN propagates.
func Exp(x float32) float32 {
	if x != x {
		return x
	}
	if x > expOverflow {
		return float32(math.Inf(1))
	}
	if x < expUnderflow {
		return 0
	}

	k := float32(math.RoundToEven(float64(x * invLn2)))

	r := x - k*ln2Hi
	r -= k * ln2Lo

	p := c6*r + c5
	p = p*r + c4
	p = p*r + c3
	p = p*r + c2
	p = p*r + 1
	p = p*r + 1

	// 2^k has exponent field k+127 and an empty mantissa.
	ki := int32(k)
	if ki > 127 {
		p *= 2
		ki--
	}
	scale := math.Float32frombits(uint32(ki+127) << 23) //nolint:gosec // ki in [-126, 127] after range checks
	return p * scale
}

// StdExp computes e^x through math.Exp, rounded to float32.
func StdExp(x float32) float32 {
	return float32(math.Exp(float64(x)))
}
