package ecs

import "math"

// growthFactor is the fraction of the pool's current capacity added each
// time the free list runs dry: ceil(capacity*growthFactor) + 1. A freshly
// registered pool therefore grows 1, then 2, then 2, then 3... instances at
// a time as capacity climbs, rather than doubling (which overshoots bursty
// but small entity counts) or growing by a fixed step (which thrashes at
// scale).
const growthFactor = 0.2

// Pool is a free-list object pool for a single component type T. It never
// grows concurrently with itself: every call happens on the World's single
// execution cursor, so no locking is needed.
//
// A Pool with a nil resetter is degenerate: it does not retain instances at
// all, since a component that cannot be reset back to a clean state isn't
// safe to hand to a new entity. Get always allocates and Put is a no-op in
// that mode; TotalSize/TotalUsed/TotalFree still report honest numbers so
// diagnostics don't need a special case.
type Pool[T any] struct {
	reset ResetterFunc[T]
	free  []*T
	used  int
}

// NewPool creates a pool for T. When reset is nil the pool never recycles
// instances (see Pool doc). initialSize pre-allocates that many free
// instances up front; it is ignored when reset is nil.
func NewPool[T any](reset ResetterFunc[T], initialSize int) *Pool[T] {
	p := &Pool[T]{reset: reset}
	if reset != nil && initialSize > 0 {
		p.grow(initialSize)
	}
	return p
}

// Poolable reports whether this pool actually recycles instances.
func (p *Pool[T]) Poolable() bool { return p.reset != nil }

// Get returns an instance of T, drawing from the free list and growing it
// first if necessary. The returned value's fields are whatever Reset left
// them as (typically the zero value).
func (p *Pool[T]) Get() *T {
	if p.reset == nil {
		p.used++
		return new(T)
	}
	if len(p.free) == 0 {
		p.grow(p.growAmount())
	}
	n := len(p.free) - 1
	v := p.free[n]
	p.free = p.free[:n]
	p.used++
	return v
}

// Put releases v back to the pool, resetting it first. It is a no-op for a
// non-poolable (nil-resetter) pool.
func (p *Pool[T]) Put(v *T) {
	if p.reset == nil {
		if p.used > 0 {
			p.used--
		}
		return
	}
	p.reset(v)
	p.free = append(p.free, v)
	if p.used > 0 {
		p.used--
	}
}

// growAmount computes ceil(capacity*growthFactor)+1 against the pool's
// current total capacity (used+free).
func (p *Pool[T]) growAmount() int {
	capacity := p.used + len(p.free)
	return int(math.Ceil(float64(capacity)*growthFactor)) + 1
}

func (p *Pool[T]) grow(n int) {
	for i := 0; i < n; i++ {
		v := new(T)
		p.reset(v)
		p.free = append(p.free, v)
	}
}

// TotalSize is the number of instances the pool currently owns, whether
// free or checked out.
func (p *Pool[T]) TotalSize() int { return p.used + len(p.free) }

// TotalUsed is the number of instances currently checked out via Get and
// not yet returned via Put.
func (p *Pool[T]) TotalUsed() int { return p.used }

// TotalFree is the number of instances sitting on the free list.
func (p *Pool[T]) TotalFree() int { return len(p.free) }
