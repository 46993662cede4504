package resample

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-reverb/dsp/window"
)

// designPolyphaseFIR builds a Kaiser-windowed sinc lowpass on the upsampled
// grid and splits it into up branches. The prototype has an odd length so
// that its group delay is a whole number of upsampled samples.
func designPolyphaseFIR(up, down int, cfg config) ([]float64, [][]float64, int, error) {
	if up <= 0 || down <= 0 {
		return nil, nil, 0, ErrInvalidRatio
	}
	if cfg.tapsPerPhase <= 0 {
		return nil, nil, 0, errors.New("resample: taps per phase must be > 0")
	}
	if cfg.cutoffScale <= 0 || cfg.cutoffScale > 1 {
		return nil, nil, 0, errors.New("resample: cutoff scale must be in (0,1]")
	}

	fc := (0.5 / float64(max(up, down))) * cfg.cutoffScale
	if fc <= 0 || fc >= 0.5 {
		return nil, nil, 0, fmt.Errorf("resample: invalid cutoff %.6f", fc)
	}

	center := cfg.tapsPerPhase * up / 2
	nTaps := 2*center + 1

	win, err := window.Kaiser(nTaps, cfg.kaiserBeta)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("resample: %w", err)
	}

	taps := make([]float64, nTaps)
	for n := range taps {
		t := float64(n - center)
		taps[n] = 2 * fc * sinc(2*fc*t)
	}
	if err := window.ApplyCoefficientsInPlace(taps, win); err != nil {
		return nil, nil, 0, fmt.Errorf("resample: %w", err)
	}

	var sum float64
	for _, v := range taps {
		sum += v
	}
	if sum == 0 {
		return nil, nil, 0, errors.New("resample: designed zero-sum filter")
	}

	// Unity DC gain per branch after zero stuffing.
	scale := float64(up) / sum
	for i := range taps {
		taps[i] *= scale
	}

	phases := make([][]float64, up)
	maxPhaseLn := 0
	for p := range up {
		phase := make([]float64, 0, (nTaps-p+up-1)/up)
		for i := p; i < nTaps; i += up {
			phase = append(phase, taps[i])
		}
		maxPhaseLn = max(maxPhaseLn, len(phase))
		phases[p] = phase
	}

	return taps, phases, maxPhaseLn, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}
	pix := math.Pi * x
	return math.Sin(pix) / pix
}
