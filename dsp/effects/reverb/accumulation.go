package reverb

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-reverb/dsp/block"
)

// AccumulationBuffer is the ring every stage of a convolver adds its output
// into. Each stage keeps its own read cursor, advanced in step with the
// buffer's read cursor, and writes at that cursor plus its post-delay.
// Writes to the same region are summed.
//
// Accumulate and UpdateReadIndex are called by the stages, ReadAndClear by
// the engine once per quantum after all stages are done. None of the methods
// may run concurrently.
type AccumulationBuffer struct {
	buffer        []float64
	readIndex     int
	readTimeFrame int64
	dropped       atomic.Uint64
}

// NewAccumulationBuffer returns a zeroed ring of length frames. It panics on
// a non-positive length.
func NewAccumulationBuffer(length int) *AccumulationBuffer {
	if length <= 0 {
		panic(fmt.Sprintf("reverb: invalid accumulation buffer length %d", length))
	}
	return &AccumulationBuffer{buffer: make([]float64, length)}
}

// Len returns the ring length in frames.
func (a *AccumulationBuffer) Len() int {
	return len(a.buffer)
}

// ReadIndex returns the position ReadAndClear will read from next.
func (a *AccumulationBuffer) ReadIndex() int {
	return a.readIndex
}

// ReadTimeFrame returns the number of frames read since the last Reset.
func (a *AccumulationBuffer) ReadTimeFrame() int64 {
	return a.readTimeFrame
}

// Dropped returns how many reads or writes were refused for violating the
// ring geometry.
func (a *AccumulationBuffer) Dropped() uint64 {
	return a.dropped.Load()
}

// ReadAndClear copies framesToProcess frames at the read cursor into output,
// zeroes them for the next writers and advances the cursor.
func (a *AccumulationBuffer) ReadAndClear(output []float64, framesToProcess int) {
	length := len(a.buffer)

	if !checkBounds(a.readIndex <= length && framesToProcess <= length && framesToProcess <= len(output),
		"read of %d frames at %d from ring of %d into %d", framesToProcess, a.readIndex, length, len(output)) {
		a.dropped.Add(1)
		return
	}

	n1 := min(framesToProcess, length-a.readIndex)
	n2 := framesToProcess - n1

	copy(output[:n1], a.buffer[a.readIndex:a.readIndex+n1])
	clear(a.buffer[a.readIndex : a.readIndex+n1])

	if n2 > 0 {
		copy(output[n1:framesToProcess], a.buffer[:n2])
		clear(a.buffer[:n2])
	}

	a.readIndex = (a.readIndex + framesToProcess) % length
	a.readTimeFrame += int64(framesToProcess)
}

// UpdateReadIndex advances a stage cursor without writing.
func (a *AccumulationBuffer) UpdateReadIndex(readIndex *int, framesToProcess int) {
	*readIndex = (*readIndex + framesToProcess) % len(a.buffer)
}

// Accumulate adds framesToProcess frames of data into the ring at *readIndex
// plus postDelay, wrapping at the end, and advances *readIndex. It returns
// the write position. A write that does not fit the ring is refused and
// returns 0; the cursor still advances.
func (a *AccumulationBuffer) Accumulate(data []float64, framesToProcess int, readIndex *int, postDelay int) int {
	length := len(a.buffer)

	writeIndex := (*readIndex + postDelay) % length
	*readIndex = (*readIndex + framesToProcess) % length

	n1 := min(framesToProcess, length-writeIndex)
	n2 := framesToProcess - n1

	if !checkBounds(writeIndex+n1 <= length && n2 <= writeIndex && framesToProcess <= len(data),
		"write of %d frames at %d into ring of %d", framesToProcess, writeIndex, length) {
		a.dropped.Add(1)
		return 0
	}

	block.AddWithScale(data, 1, a.buffer[writeIndex:], n1)
	if n2 > 0 {
		block.AddWithScale(data[n1:], 1, a.buffer, n2)
	}

	return writeIndex
}

// Reset zeroes the ring and both read counters.
func (a *AccumulationBuffer) Reset() {
	clear(a.buffer)
	a.readIndex = 0
	a.readTimeFrame = 0
}
