package buffer

import "sync"

// Pool recycles byte Split buffers of a single capacity to reduce GC pressure
// when many short-lived relays run one after another.
type Pool struct {
	capacity int
	pool     sync.Pool
}

// NewPool creates a pool handing out buffers of the given capacity.
func NewPool(capacity int) *Pool {
	p := &Pool{capacity: capacity}
	p.pool.New = func() interface{} {
		return New[byte](capacity, 0)
	}
	return p
}

// Get retrieves an empty buffer from the pool.
func (p *Pool) Get() *Split[byte] {
	s := p.pool.Get().(*Split[byte])
	s.Reset()
	return s
}

// Put returns a buffer to the pool for reuse. Buffers of a different
// capacity are dropped.
func (p *Pool) Put(s *Split[byte]) {
	if s == nil || s.Cap() != p.capacity {
		return
	}
	p.pool.Put(s)
}
