package generic

import (
	"github.com/cwbudde/algo-reverb/dsp/block/internal/arch/registry"
	"github.com/cwbudde/algo-vecmath/cpu"
)

// init registers the pure Go kernels with the lowest priority.
func init() {
	registry.Global.Register(registry.OpEntry{
		Name:      "generic",
		SIMDLevel: cpu.SIMDNone,
		Priority:  0,

		CopyWithScale:   CopyWithScale,
		AddWithScale:    AddWithScale,
		Add:             Add,
		InPlaceScale:    InPlaceScale,
		SumOfSquares:    SumOfSquares,
		PeakValue:       PeakValue,
		ComplexMultiply: ComplexMultiply,
	})
}
