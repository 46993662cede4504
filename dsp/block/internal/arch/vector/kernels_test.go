//go:build !purego && (amd64 || arm64)

package vector

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cwbudde/algo-reverb/dsp/block/internal/arch/generic"
)

func randomSlice(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

// TestMatchesGeneric checks every vector kernel against the pure Go reference.
func TestMatchesGeneric(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 0))

	for _, n := range []int{0, 1, 3, 4, 5, 17, 128, 129} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			src := randomSlice(rng, n)
			base := randomSlice(rng, n)

			got := append([]float64(nil), base...)
			want := append([]float64(nil), base...)
			AddWithScale(got, src, 0.3)
			generic.AddWithScale(want, src, 0.3)
			requireClose(t, "AddWithScale", got, want)

			CopyWithScale(got, src, -1.5)
			generic.CopyWithScale(want, src, -1.5)
			requireClose(t, "CopyWithScale", got, want)

			Add(got, src)
			generic.Add(want, src)
			requireClose(t, "Add", got, want)

			InPlaceScale(got, 0.25)
			generic.InPlaceScale(want, 0.25)
			requireClose(t, "InPlaceScale", got, want)

			if g, w := SumOfSquares(src), generic.SumOfSquares(src); math.Abs(g-w) > 1e-12 {
				t.Errorf("SumOfSquares = %v, want %v", g, w)
			}
			if g, w := PeakValue(src), generic.PeakValue(src); g != w {
				t.Errorf("PeakValue = %v, want %v", g, w)
			}

			ca := make([]complex128, n)
			cb := make([]complex128, n)
			for i := range ca {
				ca[i] = complex(src[i], base[i])
				cb[i] = complex(base[i], -src[i])
			}
			cg := make([]complex128, n)
			cw := make([]complex128, n)
			ComplexMultiply(cg, ca, cb)
			generic.ComplexMultiply(cw, ca, cb)
			for i := range cg {
				if cg[i] != cw[i] {
					t.Fatalf("ComplexMultiply[%d] = %v, want %v", i, cg[i], cw[i])
				}
			}
		})
	}
}

func requireClose(t *testing.T, name string, got, want []float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}
