package ecs

import (
	"reflect"

	"github.com/ashgrove/ecsforge/internal/infrastructure/logging"
)

// pooledType is the type-erased handle a ComponentRegistry keeps for each
// registered component type. RegisterComponent[T] is the only place that
// ever sees the concrete T; everywhere else (Entity storage, diagnostics)
// only needs the erased view.
type pooledType struct {
	name      string
	poolable  bool
	get       func() any
	put       func(any)
	copyInto  func(dst, src any) bool
	totalSize func() int
	totalUsed func() int
	totalFree func() int
	liveCount int
}

// ComponentRegistry assigns a stable TypeID to each component type the
// first time it is registered, and owns the per-type object pool that
// backs AddComponent/RemoveComponent. A World owns exactly one
// ComponentRegistry for its lifetime.
type ComponentRegistry struct {
	byReflectType map[reflect.Type]TypeID
	types         []*pooledType
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		byReflectType: make(map[reflect.Type]TypeID),
	}
}

// RegisterComponent registers component type T with the given options and
// returns a typed token for it. Registering the same T a second time is a
// no-op that returns the original token — the options passed on subsequent
// calls are ignored, since the pool has already been created.
//
// This is a package-level function, not a ComponentRegistry method,
// because Go does not allow a generic method to introduce type parameters
// of its own on a non-generic receiver.
func RegisterComponent[T any](r *ComponentRegistry, opts ComponentOptions[T]) ComponentType[T] {
	rt := reflectTypeOf[T]()
	if id, ok := r.byReflectType[rt]; ok {
		return ComponentType[T]{id: id}
	}

	if opts.Reset == nil {
		logging.Get().WithField("component", rt.String()).
			Warnf("component %s registered without a Reset function: it will not be pooled", rt.String())
	}

	pool := NewPool[T](opts.Reset, opts.InitialPoolSize)
	entry := &pooledType{
		name:     rt.String(),
		poolable: pool.Poolable(),
		get: func() any {
			return pool.Get()
		},
		put: func(v any) {
			pool.Put(v.(*T))
		},
		totalSize: pool.TotalSize,
		totalUsed: pool.TotalUsed,
		totalFree: pool.TotalFree,
	}
	if opts.Copy != nil {
		cp := opts.Copy
		entry.copyInto = func(dst, src any) bool {
			cp(dst.(*T), src.(*T))
			return true
		}
	}

	id := TypeID(len(r.types))
	r.types = append(r.types, entry)
	r.byReflectType[rt] = id
	return ComponentType[T]{id: id}
}

func (r *ComponentRegistry) entry(id TypeID) *pooledType {
	if id < 0 || int(id) >= len(r.types) {
		return nil
	}
	return r.types[id]
}

func (r *ComponentRegistry) typeCount() int { return len(r.types) }

func (r *ComponentRegistry) incLive(id TypeID) {
	if e := r.entry(id); e != nil {
		e.liveCount++
	}
}

func (r *ComponentRegistry) decLive(id TypeID) {
	if e := r.entry(id); e != nil && e.liveCount > 0 {
		e.liveCount--
	}
}

// ComponentStats is a diagnostic snapshot of one registered component
// type's pool usage, returned by World.Stats().
type ComponentStats struct {
	Name      string
	TypeID    TypeID
	Poolable  bool
	LiveCount int
	PoolSize  int
	PoolUsed  int
	PoolFree  int
}

func (r *ComponentRegistry) stats() []ComponentStats {
	out := make([]ComponentStats, 0, len(r.types))
	for id, e := range r.types {
		out = append(out, ComponentStats{
			Name:      e.name,
			TypeID:    TypeID(id),
			Poolable:  e.poolable,
			LiveCount: e.liveCount,
			PoolSize:  e.totalSize(),
			PoolUsed:  e.totalUsed(),
			PoolFree:  e.totalFree(),
		})
	}
	return out
}
