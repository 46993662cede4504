//go:build purego || !(amd64 || arm64)

package block

import (
	_ "github.com/cwbudde/algo-reverb/dsp/block/internal/arch/generic" // register generic backend
)
