//go:build !purego

package vector

import "github.com/cwbudde/algo-vecmath/cpu"

// SSE2 is the amd64 baseline; vecmath upgrades to AVX2 on its own.
func archLevel() (cpu.SIMDLevel, int) {
	return cpu.SIMDSSE2, 10
}
