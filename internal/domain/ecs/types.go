package ecs

import "reflect"

// EntityID uniquely identifies an entity for the lifetime of the World that
// created it. Ids are never reused while the World is alive: CreateEntity
// always hands out the next counter value, even when the backing *Entity
// struct itself came from the pool's free list.
type EntityID uint64

// TypeID is a compact, per-World identifier for a registered component
// type. It is assigned the first time RegisterComponent[T] runs for T and
// is stable for the life of the ComponentRegistry that assigned it; it is
// not stable across processes or across separate Worlds.
type TypeID int

const invalidTypeID TypeID = -1

// ResetterFunc clears a component value back to its zero/default state so a
// pooled instance can be reused without leaking data across entities.
type ResetterFunc[T any] func(*T)

// CopierFunc duplicates a component value. Used by Entity cloning helpers;
// most components never need one and can omit it from ComponentOptions.
type CopierFunc[T any] func(dst, src *T)

// ComponentOptions configures how a component type is registered.
type ComponentOptions[T any] struct {
	// Reset is called when a pooled instance of T is released back to the
	// free list. If nil, the component is not pooled: every AddComponent
	// allocates a fresh *T instead of drawing from a Pool[T].
	Reset ResetterFunc[T]

	// Copy duplicates a component value. Optional.
	Copy CopierFunc[T]

	// InitialPoolSize seeds the pool with that many pre-allocated, free
	// instances so the first wave of AddComponent calls for T doesn't pay
	// allocation cost mid-frame. Ignored when Reset is nil.
	InitialPoolSize int
}

// ComponentType is the typed token returned by RegisterComponent[T]. It
// carries T's assigned TypeID and is the argument every query-building
// helper (C[T], Not[T]) and every generic entity accessor expects; callers
// never need to look up a TypeID by hand.
type ComponentType[T any] struct {
	id TypeID
}

// ID returns the TypeID assigned to this component type.
func (c ComponentType[T]) ID() TypeID { return c.id }

func reflectTypeOf[T any]() reflect.Type {
	var zero T
	return reflect.TypeOf(zero)
}
