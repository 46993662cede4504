package testutil

import (
	"math"
	"testing"
)

// RequireNearlyEqual fails t if got and want differ in length or any pair of
// samples differs by more than eps.
func RequireNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if diff := math.Abs(got[i] - want[i]); diff > eps || math.IsNaN(diff) {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireSilent fails t if any sample is not exactly zero.
func RequireSilent(t *testing.T, got []float64) {
	t.Helper()
	for i, v := range got {
		if v != 0 {
			t.Fatalf("index %d: got %v, want silence", i, v)
		}
	}
}

// MaxAbsDiff returns the largest absolute difference over the common prefix
// of a and b.
func MaxAbsDiff(a, b []float64) float64 {
	n := min(len(a), len(b))
	maxDiff := 0.0
	for i := range n {
		maxDiff = max(maxDiff, math.Abs(a[i]-b[i]))
	}
	return maxDiff
}
