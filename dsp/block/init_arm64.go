//go:build arm64 && !purego

package block

import (
	_ "github.com/cwbudde/algo-reverb/dsp/block/internal/arch/generic" // register generic backend
	_ "github.com/cwbudde/algo-reverb/dsp/block/internal/arch/vector"  // register vecmath backend
)
