// Package reverb implements a real-time convolution reverb for fixed-size
// render quanta.
//
// The impulse response is split into partitions of growing size. Each
// partition is handled by a [Stage], which convolves the input with its
// segment and adds the result into a shared [AccumulationBuffer] at the
// partition's offset. A [Convolver] owns the stages of one impulse channel
// and reads one block of summed output per call; [Reverb] routes mono,
// stereo and true-stereo impulses; [ConvolutionReverb] is a wet/dry insert
// built on a single Convolver.
//
// # Timing
//
// A stage covering impulse[offset:offset+length] must contribute to output
// frame t the input from frame t-offset. Its delay is split into a pre-delay,
// applied to the input through a ring buffer, and a post-delay, applied when
// writing into the accumulation buffer. FFT stages subtract their own
// fftSize/2 convolution latency from the total. The pre-delay length is
// derived from the stage's render phase, so that stages with equal geometry
// start their FFT work on different quanta.
//
// # Real-time behavior
//
// Process never allocates, logs or returns errors. A violated buffer
// precondition drops the quantum for the affected stage and increments a
// counter reported by Dropped; building with the reverbdebug tag turns these
// violations into panics.
//
// # Concurrency
//
// With [WithWorkers], stages starting beyond [WithBackgroundThreshold]
// convolve on a fixed set of worker goroutines. The goroutine calling
// Process waits for them and then performs all accumulation itself, so the
// accumulation buffer is only ever written from one goroutine. Close stops
// the workers.
package reverb
