// Package block provides the render-quantum audio block and the arithmetic
// kernels that operate on it.
//
// A [Block] holds one fixed-size buffer per channel, carved out of a single
// contiguous allocation. Blocks can be null (silent), in which case no sample
// storage is exposed and consumers treat the block as all zero.
//
// The kernels are plain functions over float64 slices with an explicit frame
// count:
//
//	block.CopyWithScale(in, 0.5, out, n)   // out = in * 0.5
//	block.AddWithScale(in, 0.5, out, n)    // out += in * 0.5
//	block.PanStereoToStereo(inL, inR, gL, gR, true, outL, outR)
//
// Scale factors of exactly 0 and 1 take dedicated paths: a scale of 1 is a
// plain copy or add, so CopyWithScale(in, 1, out, n) is bit exact.
//
// # Implementation selection
//
// Kernel implementations register themselves in an internal registry. The
// highest-priority implementation supported by the running CPU is chosen once
// on first use; [Implementation] reports which one was picked. Build with the
// purego tag to force the pure Go kernels.
package block
