// Package pool provides sync.Pool-backed reuse of fixed-size byte and string
// buffers. Its one caller is internal/batch, which uses them for the
// scratch key buffer and touched-key list of each chunk.
package pool

import "sync"

// ByteSlicePool recycles fixed-size byte slices, sized for the 32-byte
// path/hash buffers hashed on every node touch.
type ByteSlicePool struct {
	pool sync.Pool
	size int
}

// NewByteSlicePool creates a pool handing out slices of exactly size bytes.
func NewByteSlicePool(size int) *ByteSlicePool {
	return &ByteSlicePool{
		size: size,
		pool: sync.Pool{New: func() interface{} { return make([]byte, size) }},
	}
}

// Get retrieves a zeroed slice of the pool's fixed size.
func (p *ByteSlicePool) Get() []byte {
	return p.pool.Get().([]byte)
}

// Put returns b to the pool after clearing it. Slices of the wrong size
// are dropped rather than pooled.
func (p *ByteSlicePool) Put(b []byte) {
	if b == nil || len(b) != p.size {
		return
	}
	for i := range b {
		b[i] = 0
	}
	p.pool.Put(b)
}

// Global32BytePool is the shared pool for 32-byte path and hash buffers.
var Global32BytePool = NewByteSlicePool(32)

// StringSlicePool recycles string slices, such as the list of hex keys a
// batch chunk touches.
type StringSlicePool struct {
	pool sync.Pool
	size int
}

// NewStringSlicePool creates a pool of string slices with the given
// initial capacity.
func NewStringSlicePool(size int) *StringSlicePool {
	return &StringSlicePool{
		size: size,
		pool: sync.Pool{New: func() interface{} { return make([]string, 0, size) }},
	}
}

// Get retrieves an empty string slice with at least the pool's capacity.
func (p *StringSlicePool) Get() []string {
	return p.pool.Get().([]string)[:0]
}

// Put returns s to the pool if its capacity still meets the pool's size.
func (p *StringSlicePool) Put(s []string) {
	if s != nil && cap(s) >= p.size {
		p.pool.Put(s)
	}
}

// GlobalStringSlicePool is the shared pool of string slices, each with
// capacity for MaxPathBits entries.
var GlobalStringSlicePool = NewStringSlicePool(MaxPathBits)

// MaxPathBits has the same value as proofmap.MaxPathBits; it is defined
// here so this package does not import the root package.
const MaxPathBits = 256
