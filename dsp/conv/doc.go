// Package conv provides the two streaming convolvers the reverb stages are
// built from.
//
//   - [DirectConvolver]: time-domain convolution of one render quantum with a
//     kernel no longer than the quantum. No added latency.
//   - [FFTConvolver]: overlap-add convolution against a pre-transformed
//     kernel of fftSize/2 taps. Adds fftSize/2 frames of latency.
//
// Both keep whatever history they need between calls, so a stream is
// processed by calling Process once per quantum in order. Neither allocates
// after construction. Neither is safe for concurrent use.
//
// # Usage
//
//	d := conv.NewDirectConvolver(128)
//	err := d.Process(kernel[:128], in, out, 128)
//
//	f, _ := conv.NewFFTConvolver(1024)
//	k, _ := fft.New(1024)
//	_ = k.PadAndMakeScaledDFT(kernel, 512)
//	err = f.Process(k, in, out, 128)
package conv
