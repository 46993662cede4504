package ir

import (
	"errors"
	"math"
	"testing"
)

const testRate = 8000.0

// exponentialDecay returns a response whose energy falls 60 dB in rt
// seconds, starting at sample start.
func exponentialDecay(rt, seconds float64, start int) []float64 {
	n := int(seconds * testRate)
	out := make([]float64, start+n)
	k := math.Pow(10, -3/(rt*testRate))
	v := 1.0
	for i := range n {
		out[start+i] = v
		if i%2 == 1 {
			out[start+i] = -v
		}
		v *= k
	}
	return out
}

// energyRatio is the per-sample energy decay of exponentialDecay.
func energyRatio(rt float64) float64 {
	return math.Pow(10, -6/(rt*testRate))
}

func TestAnalyzeExponentialDecay(t *testing.T) {
	for _, rt := range []float64{0.3, 0.5, 1.2} {
		response := exponentialDecay(rt, 3*rt, 40)

		m, err := NewAnalyzer(testRate).Analyze(response)
		if err != nil {
			t.Fatal(err)
		}

		for name, got := range map[string]float64{"RT60": m.RT60, "EDT": m.EDT, "T20": m.T20, "T30": m.T30} {
			if math.Abs(got-rt) > 0.01*rt {
				t.Errorf("rt %v: %s = %v", rt, name, got)
			}
		}
		if m.PeakIndex != 40 || m.Onset != 40 {
			t.Errorf("rt %v: peak %d onset %d, want 40", rt, m.PeakIndex, m.Onset)
		}

		r := energyRatio(rt)
		late80 := math.Pow(r, 640)
		if want := 10 * math.Log10((1-late80)/late80); math.Abs(m.C80-want) > 0.01 {
			t.Errorf("rt %v: C80 = %v, want %v", rt, m.C80, want)
		}
		if want := 1 - math.Pow(r, 400); math.Abs(m.D50-want) > 1e-6 {
			t.Errorf("rt %v: D50 = %v, want %v", rt, m.D50, want)
		}
		if want := r / (1 - r) / testRate; math.Abs(m.CenterTime-want) > 1e-3*want {
			t.Errorf("rt %v: CenterTime = %v, want %v", rt, m.CenterTime, want)
		}
	}
}

func TestSchroederIntegral(t *testing.T) {
	s, err := NewAnalyzer(testRate).SchroederIntegral([]float64{1, 1, 1, 1, 0})
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0, 10 * math.Log10(0.75), 10 * math.Log10(0.5), 10 * math.Log10(0.25), schroederFloor}
	for i := range want {
		if math.Abs(s[i]-want[i]) > 1e-12 {
			t.Fatalf("s[%d] = %v, want %v", i, s[i], want[i])
		}
	}
}

func TestRT60NoDecay(t *testing.T) {
	flat := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

	if _, err := NewAnalyzer(testRate).RT60(flat); !errors.Is(err, ErrNoDecay) {
		t.Fatalf("error = %v, want ErrNoDecay", err)
	}
}

func TestClarityAndDefinitionEdges(t *testing.T) {
	a := NewAnalyzer(testRate)
	short := []float64{1, 0.5}

	c, err := a.Clarity(short, 80)
	if err != nil || !math.IsInf(c, 1) {
		t.Fatalf("Clarity past the end = %v, %v", c, err)
	}
	d, err := a.Definition(short, 80)
	if err != nil || d != 1 {
		t.Fatalf("Definition past the end = %v, %v", d, err)
	}

	if _, err := a.Clarity(short, 0); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("Clarity(0) error = %v", err)
	}
	if _, err := a.Definition(short, -1); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("Definition(-1) error = %v", err)
	}
}

func TestAnalyzerErrors(t *testing.T) {
	if _, err := NewAnalyzer(testRate).Analyze(nil); !errors.Is(err, ErrEmptyIR) {
		t.Fatalf("empty: %v", err)
	}
	if _, err := NewAnalyzer(0).Analyze([]float64{1}); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("rate 0: %v", err)
	}
	if _, err := NewAnalyzer(testRate).CenterTime(nil); !errors.Is(err, ErrEmptyIR) {
		t.Fatalf("CenterTime empty: %v", err)
	}
}
