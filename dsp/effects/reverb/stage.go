package reverb

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-reverb/dsp/conv"
	"github.com/cwbudde/algo-reverb/dsp/fft"
)

var (
	// ErrStageLatency is returned when an FFT stage's total delay cannot
	// absorb the fftSize/2 latency of its own convolver.
	ErrStageLatency = errors.New("reverb: stage delay shorter than FFT latency")
	// ErrStageGeometry is returned for stage parameters that do not describe
	// a valid partition of the impulse response.
	ErrStageGeometry = errors.New("reverb: invalid stage geometry")
)

// StageParams describes one partition of an impulse response.
type StageParams struct {
	// Offset and Length select impulse[Offset:Offset+Length].
	Offset int
	Length int

	// FFTSize is the transform size in FFT mode. Direct stages use FFTSize/2
	// as their maximum kernel length.
	FFTSize int

	// RenderPhase staggers the frames at which stages start convolving.
	RenderPhase int

	// RenderSliceSize is the number of frames per Process call.
	RenderSliceSize int

	// TotalLatency is extra delay shared by all stages of a convolver.
	TotalLatency int

	// Direct selects time-domain convolution.
	Direct bool

	// Backend selects the FFT implementation for FFT stages.
	Backend fft.BackendKind
}

type stageMode uint8

const (
	stageDirect stageMode = iota
	stageFFT
)

// temporaryMode says where convolution output is written before it is
// accumulated.
type temporaryMode uint8

const (
	// temporaryDistinct uses a dedicated slice. Required when the pre-delay
	// ring holds input that has not been delayed out yet.
	temporaryDistinct temporaryMode = iota
	// temporaryAliased reuses the pre-delay ring, which is idle when the
	// stage has no pre-delay.
	temporaryAliased
)

// pendingQuantum carries one quantum from convolve to commit.
type pendingQuantum struct {
	source    []float64
	frames    int
	convolved bool
	skip      bool
}

// Stage convolves the input stream with one partition of an impulse response
// and adds the result into a shared AccumulationBuffer, delayed so that it
// lands at the partition's offset.
//
// The delay is split in two. The pre-delay is applied to the input through a
// ring buffer and staggers when stages begin convolving; the post-delay is
// applied when writing into the accumulation buffer.
type Stage struct {
	mode            stageMode
	fftKernel       *fft.Block
	fftConvolver    *conv.FFTConvolver
	directKernel    []float64
	directConvolver *conv.DirectConvolver

	accumulationBuffer    *AccumulationBuffer
	accumulationReadIndex int

	preDelayLength    int
	postDelayLength   int
	preDelayBuffer    []float64
	preReadWriteIndex int
	framesProcessed   int64

	temporaryMode   temporaryMode
	temporaryBuffer []float64

	offset  int
	length  int
	fftSize int

	pending pendingQuantum
	dropped atomic.Uint64
}

// NewStage builds the stage for impulse[p.Offset:p.Offset+p.Length]. acc is
// shared with the other stages and must outlive the stage.
func NewStage(impulse []float64, p StageParams, acc *AccumulationBuffer) (*Stage, error) {
	switch {
	case p.Offset < 0 || p.Length <= 0 || p.Offset+p.Length > len(impulse):
		return nil, fmt.Errorf("%w: partition [%d,%d) of %d frames", ErrStageGeometry, p.Offset, p.Offset+p.Length, len(impulse))
	case p.FFTSize < 2 || p.FFTSize&(p.FFTSize-1) != 0:
		return nil, fmt.Errorf("%w: FFT size %d", ErrStageGeometry, p.FFTSize)
	case p.Length > p.FFTSize/2:
		return nil, fmt.Errorf("%w: length %d exceeds half FFT size %d", ErrStageGeometry, p.Length, p.FFTSize)
	case p.RenderSliceSize <= 0 || p.RenderPhase < 0 || p.TotalLatency < 0:
		return nil, fmt.Errorf("%w: slice %d, phase %d, latency %d", ErrStageGeometry, p.RenderSliceSize, p.RenderPhase, p.TotalLatency)
	case acc == nil:
		return nil, fmt.Errorf("%w: nil accumulation buffer", ErrStageGeometry)
	}

	s := &Stage{
		accumulationBuffer: acc,
		offset:             p.Offset,
		length:             p.Length,
		fftSize:            p.FFTSize,
	}

	segment := impulse[p.Offset : p.Offset+p.Length]
	if p.Direct {
		if p.Length > p.RenderSliceSize {
			return nil, fmt.Errorf("%w: direct kernel of %d frames exceeds render slice %d", ErrStageGeometry, p.Length, p.RenderSliceSize)
		}
		s.mode = stageDirect
		s.directKernel = append([]float64(nil), segment...)
		s.directConvolver = conv.NewDirectConvolver(p.RenderSliceSize)
	} else {
		kernel, err := fft.New(p.FFTSize, fft.WithBackend(p.Backend))
		if err != nil {
			return nil, fmt.Errorf("reverb: stage kernel: %w", err)
		}
		if err := kernel.PadAndMakeScaledDFT(segment, len(segment)); err != nil {
			return nil, fmt.Errorf("reverb: stage kernel: %w", err)
		}
		convolver, err := conv.NewFFTConvolver(p.FFTSize, fft.WithBackend(p.Backend))
		if err != nil {
			return nil, fmt.Errorf("reverb: stage convolver: %w", err)
		}
		s.mode = stageFFT
		s.fftKernel = kernel
		s.fftConvolver = convolver
	}

	halfSize := p.FFTSize / 2
	totalDelay := p.Offset + p.TotalLatency
	if s.mode == stageFFT {
		if totalDelay < halfSize {
			return nil, fmt.Errorf("%w: offset %d + latency %d < %d", ErrStageLatency, p.Offset, p.TotalLatency, halfSize)
		}
		totalDelay -= halfSize
	}

	if totalDelay > 0 {
		s.preDelayLength = p.RenderPhase % min(halfSize, totalDelay)
	}
	if s.preDelayLength > totalDelay {
		s.preDelayLength = 0
	}
	// The pre-delay ring wraps on equality.
	if s.preDelayLength%p.RenderSliceSize != 0 {
		return nil, fmt.Errorf("%w: pre-delay %d is not a multiple of render slice %d",
			ErrStageGeometry, s.preDelayLength, p.RenderSliceSize)
	}
	s.postDelayLength = totalDelay - s.preDelayLength

	s.preDelayBuffer = make([]float64, max(s.preDelayLength, p.FFTSize, p.RenderSliceSize))

	if s.preDelayLength > 0 {
		s.temporaryMode = temporaryDistinct
		s.temporaryBuffer = make([]float64, p.RenderSliceSize)
	} else {
		s.temporaryMode = temporaryAliased
		s.temporaryBuffer = s.preDelayBuffer
	}

	return s, nil
}

// Process runs one quantum: convolve followed by commit.
func (s *Stage) Process(source []float64, framesToProcess int) {
	s.convolve(source, framesToProcess)
	s.commit()
}

// convolve performs the part of Process that touches only stage-private
// state. It may run on a worker goroutine; commit must follow on the
// goroutine that owns the accumulation buffer.
func (s *Stage) convolve(source []float64, framesToProcess int) {
	s.pending = pendingQuantum{source: source, frames: framesToProcess}

	n := framesToProcess
	input := source
	var temporary []float64

	switch s.temporaryMode {
	case temporaryDistinct:
		if !checkBounds(s.preReadWriteIndex+n <= len(s.preDelayBuffer),
			"pre-delay write of %d frames at %d exceeds %d", n, s.preReadWriteIndex, len(s.preDelayBuffer)) {
			s.drop()
			return
		}
		input = s.preDelayBuffer[s.preReadWriteIndex:]
		temporary = s.temporaryBuffer
	case temporaryAliased:
		temporary = s.preDelayBuffer
	}

	if !checkBounds(n > 0 && n <= len(temporary) && n <= len(source),
		"temporary buffer of %d frames for %d frames (source %d)", len(temporary), n, len(source)) {
		s.drop()
		return
	}

	if s.framesProcessed < int64(s.preDelayLength) {
		return
	}

	var err error
	if s.mode == stageFFT {
		err = s.fftConvolver.Process(s.fftKernel, input, temporary, n)
	} else {
		err = s.directConvolver.Process(s.directKernel, input, temporary, n)
	}
	if !checkBounds(err == nil, "convolver: %v", err) {
		s.drop()
		return
	}

	s.pending.convolved = true
}

// commit publishes the quantum prepared by convolve.
func (s *Stage) commit() {
	p := s.pending
	s.pending = pendingQuantum{}
	if p.skip {
		// Keep the cursor in step with the buffer's read cursor.
		if p.frames > 0 {
			s.accumulationBuffer.UpdateReadIndex(&s.accumulationReadIndex, p.frames)
		}
		return
	}

	n := p.frames
	if p.convolved {
		s.accumulationBuffer.Accumulate(s.temporaryBuffer, n, &s.accumulationReadIndex, s.postDelayLength)
	} else {
		s.accumulationBuffer.UpdateReadIndex(&s.accumulationReadIndex, n)
	}

	if s.preDelayLength > 0 {
		copy(s.preDelayBuffer[s.preReadWriteIndex:s.preReadWriteIndex+n], p.source[:n])
		s.preReadWriteIndex += n
		if s.preReadWriteIndex == s.preDelayLength {
			s.preReadWriteIndex = 0
		}
	}

	s.framesProcessed += int64(n)
}

func (s *Stage) drop() {
	s.pending.skip = true
	s.dropped.Add(1)
}

// Reset silences the stage. Geometry and kernels are kept.
func (s *Stage) Reset() {
	if s.mode == stageFFT {
		s.fftConvolver.Reset()
	} else {
		s.directConvolver.Reset()
	}

	clear(s.preDelayBuffer)
	clear(s.temporaryBuffer)
	s.accumulationReadIndex = 0
	s.preReadWriteIndex = 0
	s.framesProcessed = 0
	s.pending = pendingQuantum{}
}

// PreDelayLength returns the input delay applied through the pre-delay ring.
func (s *Stage) PreDelayLength() int { return s.preDelayLength }

// PostDelayLength returns the offset added when accumulating.
func (s *Stage) PostDelayLength() int { return s.postDelayLength }

// FramesProcessed returns the frames seen since construction or Reset.
func (s *Stage) FramesProcessed() int64 { return s.framesProcessed }

// PreReadWriteIndex returns the pre-delay ring position.
func (s *Stage) PreReadWriteIndex() int { return s.preReadWriteIndex }

// AccumulationReadIndex returns the stage's cursor into the accumulation
// buffer.
func (s *Stage) AccumulationReadIndex() int { return s.accumulationReadIndex }

// IsDirect reports whether the stage convolves in the time domain.
func (s *Stage) IsDirect() bool { return s.mode == stageDirect }

// TemporaryAliased reports whether convolution output is staged in the
// pre-delay ring instead of a separate buffer.
func (s *Stage) TemporaryAliased() bool { return s.temporaryMode == temporaryAliased }

// Dropped returns the number of quanta refused by bounds checks.
func (s *Stage) Dropped() uint64 { return s.dropped.Load() }

// Offset returns the first impulse frame covered by the stage.
func (s *Stage) Offset() int { return s.offset }

// Length returns the number of impulse frames covered by the stage.
func (s *Stage) Length() int { return s.length }

// FFTSize returns the stage's FFT size.
func (s *Stage) FFTSize() int { return s.fftSize }
