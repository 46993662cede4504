package reverb

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-reverb/dsp/core"
)

var (
	// ErrEmptyImpulse is returned for an impulse response without frames.
	ErrEmptyImpulse = errors.New("reverb: empty impulse response")
	// ErrInvalidConfig is returned for inconsistent construction settings.
	ErrInvalidConfig = errors.New("reverb: invalid configuration")
)

// StageInfo describes one stage of a Convolver.
type StageInfo struct {
	Offset     int
	Length     int
	FFTSize    int
	PreDelay   int
	PostDelay  int
	Direct     bool
	Background bool
}

// Convolver convolves a mono stream with a long impulse response using
// non-uniform partitions.
//
// The first partition is convolved directly, so the convolver adds no
// latency beyond the configured total latency. Later partitions use FFT
// stages whose size doubles up to the maximum FFT size; each stage's FFT
// latency is absorbed by its offset into the impulse. All stages add into
// one AccumulationBuffer, from which Process reads one block per call.
//
// With workers configured, stages starting beyond the background threshold
// convolve on worker goroutines while the caller handles the early stages.
// Process waits for them before accumulating, so output is identical to the
// single-goroutine case.
type Convolver struct {
	blockSize     int
	impulseLength int
	totalLatency  int

	accumulationBuffer *AccumulationBuffer
	stages             []*Stage
	info               []StageInfo

	foreground []*Stage
	background []*Stage
	workers    *workerPool

	dropped atomic.Uint64
}

// NewConvolver builds a convolver for impulse. The impulse is copied.
func NewConvolver(impulse []float64, opts ...Option) (*Convolver, error) {
	return newConvolver(impulse, ApplyOptions(opts...))
}

func validateConfig(cfg Config) error {
	bs := cfg.BlockSize
	switch {
	case !core.IsPowerOfTwo(bs):
		return fmt.Errorf("%w: block size %d is not a power of two", ErrInvalidConfig, bs)
	case cfg.MinFFTSize < 2 || !core.IsPowerOfTwo(cfg.MinFFTSize):
		return fmt.Errorf("%w: min FFT size %d is not a power of two", ErrInvalidConfig, cfg.MinFFTSize)
	case cfg.MinFFTSize/2 > bs:
		return fmt.Errorf("%w: direct kernel of %d frames exceeds block size %d", ErrInvalidConfig, cfg.MinFFTSize/2, bs)
	case cfg.MaxFFTSize < cfg.MinFFTSize || !core.IsPowerOfTwo(cfg.MaxFFTSize):
		return fmt.Errorf("%w: max FFT size %d", ErrInvalidConfig, cfg.MaxFFTSize)
	case cfg.RenderPhase%bs != 0 || cfg.TotalLatency%bs != 0:
		return fmt.Errorf("%w: render phase %d and total latency %d must be multiples of the block size %d",
			ErrInvalidConfig, cfg.RenderPhase, cfg.TotalLatency, bs)
	}
	return nil
}

// planStages partitions an impulse of the given length.
func planStages(length int, cfg Config) ([]StageParams, []bool) {
	var (
		params     []StageParams
		background []bool
	)

	useWorkers := cfg.Workers > 0
	fftSize := cfg.MinFFTSize

	for i, offset := 0, 0; offset < length; i++ {
		size := min(fftSize/2, length-offset)
		direct := offset == 0
		isBackground := useWorkers && offset > cfg.BackgroundThreshold

		params = append(params, StageParams{
			Offset:          offset,
			Length:          size,
			FFTSize:         fftSize,
			RenderPhase:     cfg.RenderPhase + i*cfg.BlockSize,
			RenderSliceSize: cfg.BlockSize,
			TotalLatency:    cfg.TotalLatency,
			Direct:          direct,
			Backend:         cfg.Backend,
		})
		background = append(background, isBackground)

		offset += size

		if !direct {
			fftSize *= 2
		}
		if useWorkers && !isBackground && fftSize > maxRealtimeFFTSize {
			fftSize = maxRealtimeFFTSize
		}
		fftSize = min(fftSize, cfg.MaxFFTSize)
	}

	return params, background
}

func newConvolver(impulse []float64, cfg Config) (*Convolver, error) {
	if len(impulse) == 0 {
		return nil, ErrEmptyImpulse
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	impulse = append([]float64(nil), impulse...)
	params, background := planStages(len(impulse), cfg)

	c := &Convolver{
		blockSize:          cfg.BlockSize,
		impulseLength:      len(impulse),
		totalLatency:       cfg.TotalLatency,
		accumulationBuffer: NewAccumulationBuffer(len(impulse) + cfg.BlockSize + cfg.TotalLatency),
		stages:             make([]*Stage, len(params)),
		info:               make([]StageInfo, len(params)),
	}

	// Kernel DFTs dominate construction time and are independent.
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range params {
		g.Go(func() error {
			s, err := NewStage(impulse, p, c.accumulationBuffer)
			if err != nil {
				return fmt.Errorf("reverb: stage %d: %w", i, err)
			}
			c.stages[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, s := range c.stages {
		c.info[i] = StageInfo{
			Offset:     s.Offset(),
			Length:     s.Length(),
			FFTSize:    s.FFTSize(),
			PreDelay:   s.PreDelayLength(),
			PostDelay:  s.PostDelayLength(),
			Direct:     s.IsDirect(),
			Background: background[i],
		}
		if background[i] {
			c.background = append(c.background, s)
		} else {
			c.foreground = append(c.foreground, s)
		}

		cfg.Logger.WithFields(logrus.Fields{
			"stage":      i,
			"offset":     s.Offset(),
			"length":     s.Length(),
			"fft_size":   s.FFTSize(),
			"pre_delay":  s.PreDelayLength(),
			"post_delay": s.PostDelayLength(),
			"direct":     s.IsDirect(),
			"background": background[i],
		}).Debug("reverb stage")
	}

	if len(c.background) > 0 {
		c.workers = newWorkerPool(cfg.Workers, len(c.background))
	}

	cfg.Logger.WithFields(logrus.Fields{
		"impulse_frames": len(impulse),
		"stages":         len(c.stages),
		"background":     len(c.background),
		"block_size":     cfg.BlockSize,
		"fft_backend":    cfg.Backend,
	}).Debug("reverb convolver ready")

	return c, nil
}

// Process convolves one block of input and writes one block of output.
// input and output must hold at least BlockSize frames and may alias.
func (c *Convolver) Process(input, output []float64) {
	n := c.blockSize

	if !checkBounds(len(input) >= n && len(output) >= n,
		"process needs %d frames, got input %d output %d", n, len(input), len(output)) {
		c.dropped.Add(1)
		clear(output[:min(n, len(output))])
		return
	}

	if c.workers != nil {
		c.workers.dispatch(c.background, input, n)
	}

	for _, s := range c.foreground {
		s.Process(input, n)
	}

	if c.workers != nil {
		c.workers.wait()
		for _, s := range c.background {
			s.commit()
		}
	}

	c.accumulationBuffer.ReadAndClear(output, n)
}

// Reset silences the convolver. It must not run concurrently with Process.
func (c *Convolver) Reset() {
	c.accumulationBuffer.Reset()
	for _, s := range c.stages {
		s.Reset()
	}
}

// Close stops the worker goroutines. The convolver stays usable and
// processes every stage on the calling goroutine afterwards.
func (c *Convolver) Close() error {
	if c.workers == nil {
		return nil
	}

	c.workers.close()
	c.workers = nil
	c.foreground = c.stages
	c.background = nil
	return nil
}

// BlockSize returns the number of frames per Process call.
func (c *Convolver) BlockSize() int {
	return c.blockSize
}

// Latency returns the delay in frames between input and output.
func (c *Convolver) Latency() int {
	return c.totalLatency
}

// ImpulseLength returns the impulse response length in frames.
func (c *Convolver) ImpulseLength() int {
	return c.impulseLength
}

// TailLength returns how many frames of output follow the last non-silent
// input frame.
func (c *Convolver) TailLength() int {
	return c.impulseLength - 1 + c.totalLatency
}

// Stages returns the stage layout.
func (c *Convolver) Stages() []StageInfo {
	return append([]StageInfo(nil), c.info...)
}

// Dropped returns the number of quanta lost to bounds checks in the
// convolver, its stages and its accumulation buffer.
func (c *Convolver) Dropped() uint64 {
	total := c.dropped.Load() + c.accumulationBuffer.Dropped()
	for _, s := range c.stages {
		total += s.Dropped()
	}
	return total
}
