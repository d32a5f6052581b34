// Package collections provides a small sync.Pool-backed slice pool,
// used to recycle the per-epoch host-scratch buffers the parallel
// engine and rejection-sampling loop would otherwise reallocate on
// every draw.
package collections

import "sync"

// SlicePool is a generic pool for slices of any type.
type SlicePool[T any] struct {
	pool       sync.Pool
	initialCap int
}

// NewSlicePool creates a new slice pool with the given initial capacity.
func NewSlicePool[T any](initialCap int) *SlicePool[T] {
	if initialCap <= 0 {
		initialCap = 256
	}
	return &SlicePool[T]{
		initialCap: initialCap,
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]T, 0, initialCap)
				return &s
			},
		},
	}
}

// Get gets a slice from the pool.
func (p *SlicePool[T]) Get() *[]T {
	return p.pool.Get().(*[]T)
}

// Put returns a slice to the pool after clearing it.
func (p *SlicePool[T]) Put(s *[]T) {
	*s = (*s)[:0]
	p.pool.Put(s)
}

// Int64SlicePool is the pool the engine's workers draw their per-draw
// host-list scratch buffers (the small already-chosen list) from, sized
// for one attachment degree's worth of hosts. The per-epoch
// hosts-linked list is a plain per-worker slice and is not pooled.
var Int64SlicePool = NewSlicePool[int64](16)

// GetInt64Slice gets a []int64 scratch buffer from Int64SlicePool.
func GetInt64Slice() *[]int64 {
	return Int64SlicePool.Get()
}

// PutInt64Slice returns a []int64 scratch buffer to Int64SlicePool after
// clearing it.
func PutInt64Slice(s *[]int64) {
	Int64SlicePool.Put(s)
}
