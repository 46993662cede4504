package block

import "sync"

// Pool recycles blocks of one shape to keep allocations out of the render
// loop once it has warmed up.
type Pool struct {
	pool     sync.Pool
	channels int
	size     int
}

// NewPool returns a Pool handing out blocks with the given channel count
// and frame size.
func NewPool(channels, size int) *Pool {
	p := &Pool{channels: channels, size: size}
	p.pool.New = func() any {
		return New(channels, size)
	}
	return p
}

// Get returns a zeroed, non-null block. Return it with Put when the quantum
// is done.
func (p *Pool) Get() *Block {
	b := p.pool.Get().(*Block)
	b.AllocateChannels(p.channels)
	return b
}

// Put returns b to the pool. Blocks of a different size are dropped. The
// caller must not use b afterwards.
func (p *Pool) Put(b *Block) {
	if b == nil || b.size != p.size {
		return
	}
	p.pool.Put(b)
}
