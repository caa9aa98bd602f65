// Package bufpool provides pooled byte slices for stream copies.
//
// Uploads and downloads move whole objects through io.CopyBuffer; without
// pooling every transfer allocates a fresh copy buffer. The pool keeps
// three size classes aligned with common chunk sizes. Buffers above the
// largest class are allocated directly and never pooled, so an occasional
// oversized request does not pin memory.
package bufpool

import "sync"

// Size classes. Medium matches the default chunk size.
const (
	SmallSize  = 32 << 10
	MediumSize = 256 << 10
	LargeSize  = 1 << 20
)

// Pool hands out byte slices by size class. Safe for concurrent use.
type Pool struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	p := &Pool{}
	p.small.New = func() any { b := make([]byte, SmallSize); return &b }
	p.medium.New = func() any { b := make([]byte, MediumSize); return &b }
	p.large.New = func() any { b := make([]byte, LargeSize); return &b }
	return p
}

// Get returns a slice of exactly the requested length, backed by a pooled
// buffer when the size fits a class. The caller must Put it back when done.
func (p *Pool) Get(size int) []byte {
	var ptr *[]byte
	switch {
	case size <= SmallSize:
		ptr = p.small.Get().(*[]byte)
	case size <= MediumSize:
		ptr = p.medium.Get().(*[]byte)
	case size <= LargeSize:
		ptr = p.large.Get().(*[]byte)
	default:
		return make([]byte, size)
	}
	return (*ptr)[:size]
}

// Put returns a buffer obtained from Get. Buffers whose capacity matches no
// size class are dropped for the garbage collector.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	full := buf[:cap(buf)]
	switch cap(buf) {
	case SmallSize:
		p.small.Put(&full)
	case MediumSize:
		p.medium.Put(&full)
	case LargeSize:
		p.large.Put(&full)
	}
}

var global = NewPool()

// Get returns a slice from the package-level pool.
func Get(size int) []byte { return global.Get(size) }

// Put returns a slice to the package-level pool.
func Put(buf []byte) { global.Put(buf) }
