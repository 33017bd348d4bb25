// Package pool supplies a typed wrapper over sync.Pool so callers don't
// scatter type assertions through their hot paths.
package pool

import "sync"

// Pool recycles values of type T, avoiding an allocation on every Get
// once the pool has warmed up.
type Pool[T any] struct {
	raw sync.Pool
}

// New builds a Pool that calls newItem whenever Get finds the pool empty.
func New[T any](newItem func() T) *Pool[T] {
	return &Pool[T]{raw: sync.Pool{New: func() any { return newItem() }}}
}

// Get returns a recycled value or a freshly constructed one.
func (p *Pool[T]) Get() T {
	return p.raw.Get().(T)
}

// Put returns item to the pool for reuse.
func (p *Pool[T]) Put(item T) {
	p.raw.Put(item)
}
