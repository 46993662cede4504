//go:build !purego && (amd64 || arm64)

// Package vector provides block kernels backed by algo-vecmath, which
// dispatches to SSE2/AVX2 or NEON assembly internally. Operations without a
// vecmath counterpart are 4x unrolled scalar loops.
package vector

import (
	vecmath "github.com/cwbudde/algo-vecmath"
)

// CopyWithScale computes dst[i] = src[i] * scale.
func CopyWithScale(dst, src []float64, scale float64) {
	vecmath.ScaleBlock(dst, src[:len(dst)], scale)
}

// Add computes dst[i] += src[i].
func Add(dst, src []float64) {
	vecmath.AddBlockInPlace(dst, src[:len(dst)])
}

// InPlaceScale computes buf[i] *= scale.
func InPlaceScale(buf []float64, scale float64) {
	vecmath.ScaleBlockInPlace(buf, scale)
}

// SumOfSquares returns the sum of x[i]^2.
func SumOfSquares(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return vecmath.DotProduct(x, x)
}

// PeakValue returns the largest absolute value in x.
func PeakValue(x []float64) float64 {
	return vecmath.MaxAbs(x)
}

// AddWithScale computes dst[i] += src[i] * scale.
func AddWithScale(dst, src []float64, scale float64) {
	n := len(dst)
	src = src[:n]

	i := 0
	for ; i+3 < n; i += 4 {
		dst[i] += src[i] * scale
		dst[i+1] += src[i+1] * scale
		dst[i+2] += src[i+2] * scale
		dst[i+3] += src[i+3] * scale
	}
	for ; i < n; i++ {
		dst[i] += src[i] * scale
	}
}

// ComplexMultiply computes dst[i] = a[i] * b[i], two bins per iteration.
func ComplexMultiply(dst, a, b []complex128) {
	n := len(dst)
	a = a[:n]
	b = b[:n]

	i := 0
	for ; i+1 < n; i += 2 {
		re0, im0 := real(a[i]), imag(a[i])
		sr0, si0 := real(b[i]), imag(b[i])
		re1, im1 := real(a[i+1]), imag(a[i+1])
		sr1, si1 := real(b[i+1]), imag(b[i+1])

		dst[i] = complex(re0*sr0-im0*si0, re0*si0+im0*sr0)
		dst[i+1] = complex(re1*sr1-im1*si1, re1*si1+im1*sr1)
	}
	if i < n {
		re, im := real(a[i]), imag(a[i])
		sr, si := real(b[i]), imag(b[i])
		dst[i] = complex(re*sr-im*si, re*si+im*sr)
	}
}
