//go:build !purego

package vector

import "github.com/cwbudde/algo-vecmath/cpu"

func archLevel() (cpu.SIMDLevel, int) {
	return cpu.SIMDNEON, 15
}
