package block

import "fmt"

// DefaultSize is the render quantum used when nothing else is configured.
const DefaultSize = 128

// Block is one render quantum of planar audio.
//
// Every channel slice has exactly Size() samples and all channels share one
// backing allocation. A null block exposes no channels and reads as silence.
// A Block is owned by the goroutine rendering the quantum; hand it to another
// goroutine only by copying it.
type Block struct {
	size     int
	data     []float64
	channels [][]float64
}

// New returns a zeroed block with the given channel count and frame size.
// A channel count of 0 returns a null block. New panics on a non-positive
// size.
func New(channelCount, size int) *Block {
	if size <= 0 {
		panic(fmt.Sprintf("block: invalid size %d", size))
	}

	b := &Block{size: size}
	b.AllocateChannels(channelCount)
	return b
}

// NewNull returns a null block of the given size.
func NewNull(size int) *Block {
	return New(0, size)
}

// AllocateChannels makes b a non-null, zeroed block with n channels. Storage
// from earlier allocations is reused when it is large enough. n == 0 makes
// b null.
func (b *Block) AllocateChannels(n int) {
	if n <= 0 {
		b.SetNull()
		return
	}

	need := n * b.size
	if cap(b.data) < need {
		b.data = make([]float64, need)
	} else {
		b.data = b.data[:need]
		clear(b.data)
	}

	if cap(b.channels) < n {
		b.channels = make([][]float64, n)
	}
	b.channels = b.channels[:n]

	for ch := range b.channels {
		start := ch * b.size
		b.channels[ch] = b.data[start : start+b.size : start+b.size]
	}
}

// SetNull marks the block silent. Storage is kept for a later
// AllocateChannels.
func (b *Block) SetNull() {
	b.channels = b.channels[:0]
}

// IsNull reports whether the block is silent.
func (b *Block) IsNull() bool {
	return len(b.channels) == 0
}

// Size returns the number of frames per channel.
func (b *Block) Size() int {
	return b.size
}

// ChannelCount returns the number of channels, 0 for a null block.
func (b *Block) ChannelCount() int {
	return len(b.channels)
}

// Channel returns the samples of channel ch. It panics for a null block or
// an out-of-range channel.
func (b *Block) Channel(ch int) []float64 {
	return b.channels[ch]
}

// Channels returns all channel slices. The result is empty for a null block.
func (b *Block) Channels() [][]float64 {
	return b.channels
}

// Zero clears every channel without making the block null.
func (b *Block) Zero() {
	clear(b.data[:len(b.channels)*b.size])
}

// CopyFrom makes b an exact copy of src. Both blocks must have the same size.
func (b *Block) CopyFrom(src *Block) {
	b.mustMatch(src)

	if src.IsNull() {
		b.SetNull()
		return
	}

	if b.ChannelCount() != src.ChannelCount() {
		b.AllocateChannels(src.ChannelCount())
	}
	for ch, in := range src.channels {
		copy(b.channels[ch], in)
	}
}

// Scale multiplies every channel by scale. Null blocks are left alone.
func (b *Block) Scale(scale float64) {
	for _, ch := range b.channels {
		InPlaceScale(ch, scale, b.size)
	}
}

// AddScaled adds src*scale channel by channel. A null src contributes
// nothing; a null b is allocated with src's channel count first.
func (b *Block) AddScaled(src *Block, scale float64) {
	b.mustMatch(src)

	if src.IsNull() || scale == 0 {
		return
	}
	if b.IsNull() {
		b.AllocateChannels(src.ChannelCount())
	}

	n := min(b.ChannelCount(), src.ChannelCount())
	for ch := range n {
		AddWithScale(src.channels[ch], scale, b.channels[ch], b.size)
	}
}

// Peak returns the largest absolute sample over all channels.
func (b *Block) Peak() float64 {
	peak := 0.0
	for _, ch := range b.channels {
		peak = max(peak, PeakValue(ch, b.size))
	}
	return peak
}

// Energy returns the sum of squares over all channels.
func (b *Block) Energy() float64 {
	sum := 0.0
	for _, ch := range b.channels {
		sum += SumOfSquares(ch, b.size)
	}
	return sum
}

func (b *Block) mustMatch(other *Block) {
	if b.size != other.size {
		panic(fmt.Sprintf("block: size mismatch %d != %d", b.size, other.size))
	}
}
