package ir

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-reverb/dsp/block"
)

var (
	ErrEmptyIR           = errors.New("ir: impulse response is empty")
	ErrInvalidSampleRate = errors.New("ir: sample rate must be positive")
	ErrInvalidTime       = errors.New("ir: time must be positive")
	ErrNoDecay           = errors.New("ir: insufficient decay for RT calculation")
)

// schroederFloor is the level assigned where no energy remains.
const schroederFloor = -200.0

// Metrics holds impulse response analysis results. Reverberation times are
// 0 when the response does not decay far enough to measure them.
type Metrics struct {
	RT60       float64 // seconds, T30 or T20 when T30 is unavailable
	EDT        float64 // seconds, from the 0 to -10 dB slope
	T20        float64 // seconds, from the -5 to -25 dB slope
	T30        float64 // seconds, from the -5 to -35 dB slope
	C50        float64 // dB
	C80        float64 // dB
	D50        float64 // 0..1
	D80        float64 // 0..1
	CenterTime float64 // seconds
	PeakIndex  int
	Onset      int // first sample within 20 dB of the peak
}

// Analyzer computes impulse response metrics at a fixed sample rate.
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer returns an analyzer for responses sampled at sampleRate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

func (a *Analyzer) check(ir []float64) error {
	if len(ir) == 0 {
		return ErrEmptyIR
	}
	if a.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	return nil
}

// Analyze computes all metrics of ir.
func (a *Analyzer) Analyze(ir []float64) (Metrics, error) {
	if err := a.check(ir); err != nil {
		return Metrics{}, err
	}

	peak := findPeak(ir)
	tail := ir[peak:]
	schroeder := schroederIntegral(tail)

	m := Metrics{
		PeakIndex:  peak,
		Onset:      findOnset(ir, 0.1),
		CenterTime: a.centerTime(tail),
		C50:        a.clarity(tail, 50),
		C80:        a.clarity(tail, 80),
		D50:        a.definition(tail, 50),
		D80:        a.definition(tail, 80),
		EDT:        a.reverbTime(schroeder, 0, -10),
		T20:        a.reverbTime(schroeder, -5, -25),
		T30:        a.reverbTime(schroeder, -5, -35),
	}

	m.RT60 = m.T30
	if m.RT60 == 0 {
		m.RT60 = m.T20
	}
	return m, nil
}

// SchroederIntegral returns the backward-integrated energy of ir in dB
// relative to its total energy.
func (a *Analyzer) SchroederIntegral(ir []float64) ([]float64, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyIR
	}
	return schroederIntegral(ir), nil
}

// RT60 returns the reverberation time of ir, from T30 when the response
// decays 35 dB and from T20 otherwise.
func (a *Analyzer) RT60(ir []float64) (float64, error) {
	if err := a.check(ir); err != nil {
		return 0, err
	}

	schroeder := schroederIntegral(ir)
	if rt := a.reverbTime(schroeder, -5, -35); rt > 0 {
		return rt, nil
	}
	if rt := a.reverbTime(schroeder, -5, -25); rt > 0 {
		return rt, nil
	}
	return 0, ErrNoDecay
}

// Clarity returns the early-to-late energy ratio in dB with the boundary
// at timeMs.
func (a *Analyzer) Clarity(ir []float64, timeMs float64) (float64, error) {
	if err := a.check(ir); err != nil {
		return 0, err
	}
	if timeMs <= 0 {
		return 0, ErrInvalidTime
	}
	return a.clarity(ir, timeMs), nil
}

// Definition returns the fraction of energy before timeMs.
func (a *Analyzer) Definition(ir []float64, timeMs float64) (float64, error) {
	if err := a.check(ir); err != nil {
		return 0, err
	}
	if timeMs <= 0 {
		return 0, ErrInvalidTime
	}
	return a.definition(ir, timeMs), nil
}

// CenterTime returns the energy centroid of ir in seconds.
func (a *Analyzer) CenterTime(ir []float64) (float64, error) {
	if err := a.check(ir); err != nil {
		return 0, err
	}
	return a.centerTime(ir), nil
}

func schroederIntegral(ir []float64) []float64 {
	out := make([]float64, len(ir))

	var sum float64
	for i := len(ir) - 1; i >= 0; i-- {
		sum += ir[i] * ir[i]
		out[i] = sum
	}

	total := out[0]
	if total <= 0 {
		return out
	}
	for i, v := range out {
		if v <= 0 {
			out[i] = schroederFloor
			continue
		}
		out[i] = 10 * math.Log10(v/total)
	}
	return out
}

// reverbTime fits a line to the Schroeder curve between startDB and endDB
// and extrapolates it to -60 dB.
func (a *Analyzer) reverbTime(schroeder []float64, startDB, endDB float64) float64 {
	start, end := -1, -1
	for i, v := range schroeder {
		if start < 0 && v <= startDB {
			start = i
		}
		if start >= 0 && v <= endDB {
			end = i
			break
		}
	}
	if start < 0 || end <= start {
		return 0
	}

	ys := schroeder[start : end+1]
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}

	_, slope := stat.LinearRegression(xs, ys, nil, false)
	if slope >= 0 {
		return 0
	}
	return -60 / (slope * a.SampleRate)
}

func (a *Analyzer) boundary(timeMs float64) int {
	return int(math.Round(timeMs * 0.001 * a.SampleRate))
}

func (a *Analyzer) definition(ir []float64, timeMs float64) float64 {
	b := a.boundary(timeMs)
	if b <= 0 {
		return 0
	}
	if b >= len(ir) {
		return 1
	}

	total := block.SumOfSquares(ir, len(ir))
	if total <= 0 {
		return 0
	}
	return block.SumOfSquares(ir, b) / total
}

func (a *Analyzer) clarity(ir []float64, timeMs float64) float64 {
	b := a.boundary(timeMs)
	if b <= 0 {
		return math.Inf(-1)
	}
	if b >= len(ir) {
		return math.Inf(1)
	}

	early := block.SumOfSquares(ir, b)
	late := block.SumOfSquares(ir[b:], len(ir)-b)
	switch {
	case late <= 0:
		return math.Inf(1)
	case early <= 0:
		return math.Inf(-1)
	}
	return 10 * math.Log10(early/late)
}

func (a *Analyzer) centerTime(ir []float64) float64 {
	var num, den float64
	for i, v := range ir {
		e := v * v
		num += float64(i) * e
		den += e
	}
	if den <= 0 {
		return 0
	}
	return num / den / a.SampleRate
}

func findPeak(ir []float64) int {
	peak, idx := 0.0, 0
	for i, v := range ir {
		if av := math.Abs(v); av > peak {
			peak, idx = av, i
		}
	}
	return idx
}

// findOnset returns the first sample reaching ratio times the peak
// magnitude.
func findOnset(ir []float64, ratio float64) int {
	threshold := block.PeakValue(ir, len(ir)) * ratio
	for i, v := range ir {
		if math.Abs(v) >= threshold {
			return i
		}
	}
	return 0
}
