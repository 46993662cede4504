package block

import (
	"sync"

	archregistry "github.com/cwbudde/algo-reverb/dsp/block/internal/arch/registry"
	"github.com/cwbudde/algo-vecmath/cpu"
)

var (
	ops     *archregistry.OpEntry
	opsOnce sync.Once
)

func kernels() *archregistry.OpEntry {
	opsOnce.Do(initKernels)
	return ops
}

func initKernels() {
	entry := archregistry.Global.Lookup(cpu.DetectFeatures())
	if entry == nil {
		panic("block: no kernel implementation registered (missing generic fallback?)")
	}

	ops = entry
}

// Implementation returns the name of the kernel implementation in use.
func Implementation() string {
	return kernels().Name
}

// CopyWithScale computes out[i] = in[i] * scale for the first n frames.
// A scale of 1 is a straight copy.
func CopyWithScale(in []float64, scale float64, out []float64, n int) {
	in, out = in[:n], out[:n]

	switch scale {
	case 1:
		copy(out, in)
	case 0:
		clear(out)
	default:
		kernels().CopyWithScale(out, in, scale)
	}
}

// AddWithScale computes out[i] += in[i] * scale for the first n frames.
// A scale of 1 adds without multiplying; a scale of 0 leaves out untouched.
func AddWithScale(in []float64, scale float64, out []float64, n int) {
	in, out = in[:n], out[:n]

	switch scale {
	case 1:
		kernels().Add(out, in)
	case 0:
	default:
		kernels().AddWithScale(out, in, scale)
	}
}

// InPlaceScale computes buf[i] *= scale for the first n frames.
func InPlaceScale(buf []float64, scale float64, n int) {
	buf = buf[:n]

	switch scale {
	case 1:
	case 0:
		clear(buf)
	default:
		kernels().InPlaceScale(buf, scale)
	}
}

// CopyWithScaleArray computes out[i] = in[i] * scales[i].
func CopyWithScaleArray(in, scales, out []float64, n int) {
	in, scales, out = in[:n], scales[:n], out[:n]
	for i := range out {
		out[i] = in[i] * scales[i]
	}
}

// InPlaceScaleArray computes buf[i] *= scales[i].
func InPlaceScaleArray(buf, scales []float64, n int) {
	buf, scales = buf[:n], scales[:n]
	for i := range buf {
		buf[i] *= scales[i]
	}
}

// PanMonoToStereo writes in scaled by gainL to outL and by gainR to outR.
// The gains come from an upstream panning law; len(in) frames are written.
func PanMonoToStereo(in []float64, gainL, gainR float64, outL, outR []float64) {
	n := len(in)
	CopyWithScale(in, gainL, outL, n)
	CopyWithScale(in, gainR, outR, n)
}

// PanMonoToStereoArray is PanMonoToStereo with per-frame gains.
func PanMonoToStereoArray(in, gainsL, gainsR, outL, outR []float64) {
	n := len(in)
	CopyWithScaleArray(in, gainsL, outL, n)
	CopyWithScaleArray(in, gainsR, outR, n)
}

// PanStereoToStereo applies the stereo crossfade pan law. When isOnTheLeft
// is set the right input bleeds into the left output:
//
//	outL = inL + inR*gainL
//	outR = inR*gainR
//
// otherwise the mirror image:
//
//	outL = inL*gainL
//	outR = inR + inL*gainR
//
// Outputs may alias the inputs.
func PanStereoToStereo(inL, inR []float64, gainL, gainR float64, isOnTheLeft bool, outL, outR []float64) {
	n := len(inL)
	inR, outL, outR = inR[:n], outL[:n], outR[:n]

	if isOnTheLeft {
		for i := range n {
			l, r := inL[i], inR[i]
			outL[i] = l + r*gainL
			outR[i] = r * gainR
		}
		return
	}

	for i := range n {
		l, r := inL[i], inR[i]
		outL[i] = l * gainL
		outR[i] = r + l*gainR
	}
}

// PanStereoToStereoArray is PanStereoToStereo with per-frame gains and
// per-frame side selection.
func PanStereoToStereoArray(inL, inR, gainsL, gainsR []float64, isOnTheLeft []bool, outL, outR []float64) {
	n := len(inL)
	inR, gainsL, gainsR = inR[:n], gainsL[:n], gainsR[:n]
	isOnTheLeft, outL, outR = isOnTheLeft[:n], outL[:n], outR[:n]

	for i := range n {
		l, r := inL[i], inR[i]
		if isOnTheLeft[i] {
			outL[i] = l + r*gainsL[i]
			outR[i] = r * gainsR[i]
		} else {
			outL[i] = l * gainsL[i]
			outR[i] = r + l*gainsR[i]
		}
	}
}

// SumOfSquares returns the energy of the first n frames of in.
func SumOfSquares(in []float64, n int) float64 {
	return kernels().SumOfSquares(in[:n])
}

// PeakValue returns the largest absolute sample among the first n frames.
func PeakValue(in []float64, n int) float64 {
	return kernels().PeakValue(in[:n])
}

// ComplexMultiply computes out[i] = in[i] * scale[i] for n complex bins.
// out may alias in.
func ComplexMultiply(in, scale, out []complex128, n int) {
	kernels().ComplexMultiply(out[:n], in[:n], scale[:n])
}
