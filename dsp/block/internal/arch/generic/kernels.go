// Package generic provides the pure Go block kernels. They are the fallback
// on every platform and the reference the accelerated variants are tested
// against.
package generic

import "math"

// CopyWithScale computes dst[i] = src[i] * scale.
func CopyWithScale(dst, src []float64, scale float64) {
	src = src[:len(dst)]
	for i := range dst {
		dst[i] = src[i] * scale
	}
}

// AddWithScale computes dst[i] += src[i] * scale.
func AddWithScale(dst, src []float64, scale float64) {
	src = src[:len(dst)]
	for i := range dst {
		dst[i] += src[i] * scale
	}
}

// Add computes dst[i] += src[i].
func Add(dst, src []float64) {
	src = src[:len(dst)]
	for i := range dst {
		dst[i] += src[i]
	}
}

// InPlaceScale computes buf[i] *= scale.
func InPlaceScale(buf []float64, scale float64) {
	for i := range buf {
		buf[i] *= scale
	}
}

// SumOfSquares returns the sum of x[i]^2.
func SumOfSquares(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// PeakValue returns the largest absolute value in x, 0 for an empty slice.
func PeakValue(x []float64) float64 {
	peak := 0.0
	for _, v := range x {
		peak = math.Max(peak, math.Abs(v))
	}
	return peak
}

// ComplexMultiply computes dst[i] = a[i] * b[i] over interleaved
// (real, imag) pairs.
func ComplexMultiply(dst, a, b []complex128) {
	a = a[:len(dst)]
	b = b[:len(dst)]
	for i := range dst {
		re1, im1 := real(a[i]), imag(a[i])
		re2, im2 := real(b[i]), imag(b[i])
		dst[i] = complex(re1*re2-im1*im2, re1*im2+im1*re2)
	}
}
