//go:build !purego && (amd64 || arm64)

package vector

import "github.com/cwbudde/algo-reverb/dsp/block/internal/arch/registry"

// init registers the vecmath-backed kernels at the level reported by
// archLevel for the current GOARCH.
func init() {
	level, priority := archLevel()

	registry.Global.Register(registry.OpEntry{
		Name:      "vecmath",
		SIMDLevel: level,
		Priority:  priority,

		CopyWithScale:   CopyWithScale,
		AddWithScale:    AddWithScale,
		Add:             Add,
		InPlaceScale:    InPlaceScale,
		SumOfSquares:    SumOfSquares,
		PeakValue:       PeakValue,
		ComplexMultiply: ComplexMultiply,
	})
}
