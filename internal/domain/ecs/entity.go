package ecs

import "reflect"

// Entity is an opaque handle identified by an EntityID. It carries no
// behavior of its own — it is a map from registered component TypeIDs to
// the component values currently attached to it, plus a small staging area
// for components that have been removed this frame but whose pooled
// storage hasn't been released yet (see EntityStore.CommitDeferred).
//
// Entity is not safe for concurrent use; the World that owns it guarantees
// a single execution cursor touches it at a time.
type Entity struct {
	id         EntityID
	store      *EntityStore
	alive      bool
	components map[TypeID]any
	removed    map[TypeID]any

	// queries is the entity's back-edge set: every Query it is currently a
	// member of. It exists so removing an entity from every query it sits
	// in (onEntityRemoved) costs O(queries it belongs to) instead of
	// O(every live query in the engine).
	queries map[*Query]struct{}
}

func (e *Entity) addQueryBackEdge(q *Query) {
	if e.queries == nil {
		e.queries = make(map[*Query]struct{})
	}
	e.queries[q] = struct{}{}
}

func (e *Entity) removeQueryBackEdge(q *Query) { delete(e.queries, q) }

func (e *Entity) clearQueryBackEdges() {
	for q := range e.queries {
		delete(e.queries, q)
	}
}

// ID returns the entity's id. Ids are never reused while the owning World
// is alive, even though the *Entity struct backing a dead entity may be
// recycled by the entity pool.
func (e *Entity) ID() EntityID { return e.id }

// IsAlive reports whether the entity has not yet been removed. A dead
// entity's component map has already been released; none of the generic
// accessors do anything useful against it.
func (e *Entity) IsAlive() bool { return e.alive }

// HasComponent reports whether the entity currently carries a component of
// the given type.
func (e *Entity) HasComponent(id TypeID) bool {
	_, ok := e.components[id]
	return ok
}

// HasAllComponents reports whether the entity carries every listed
// component type.
func (e *Entity) HasAllComponents(ids ...TypeID) bool {
	for _, id := range ids {
		if !e.HasComponent(id) {
			return false
		}
	}
	return true
}

// HasAnyComponents reports whether the entity carries at least one of the
// listed component types.
func (e *Entity) HasAnyComponents(ids ...TypeID) bool {
	for _, id := range ids {
		if e.HasComponent(id) {
			return true
		}
	}
	return false
}

// RemoveAllComponents stages every component currently on the entity for
// removal, exactly as RemoveComponent would for each one individually:
// query membership drops immediately, pool release is deferred to
// CommitDeferred. Types are visited in reverse of their attachment order,
// matching the source's iteration direction.
func (e *Entity) RemoveAllComponents() { e.removeAllComponents(false) }

// RemoveAllComponentsForce is RemoveAllComponents with immediate pool
// release instead of deferred staging.
func (e *Entity) RemoveAllComponentsForce() { e.removeAllComponents(true) }

func (e *Entity) removeAllComponents(force bool) {
	if !e.alive {
		return
	}
	ids := make([]TypeID, 0, len(e.components))
	for id := range e.components {
		ids = append(ids, id)
	}
	for i := len(ids) - 1; i >= 0; i-- {
		e.store.removeComponent(e, ids[i], force)
	}
}

// Remove stages the entity itself for removal. The entity immediately
// drops out of every query and out of World.GetEntity lookups; its backing
// storage is recycled at the next CommitDeferred.
func (e *Entity) Remove() {
	if !e.alive {
		return
	}
	e.store.removeEntity(e, false)
}

// RemoveForce is Remove with immediate release: the entity's backing
// storage and every attached component's pooled storage are returned to
// their pools synchronously instead of waiting for CommitDeferred.
func (e *Entity) RemoveForce() {
	if !e.alive {
		return
	}
	e.store.removeEntity(e, true)
}

// AddComponent draws an instance of T from the registry's pool for T,
// attaches it to the entity, and returns it for the caller to populate. If
// the entity already carries T, AddComponent is a no-op and returns the
// existing instance unchanged — it does not reset or reacquire it. Returns
// nil if the entity is not alive.
func AddComponent[T any](e *Entity, ct ComponentType[T]) *T {
	if !e.alive {
		return nil
	}
	entry := e.store.registry.entry(ct.id)
	if entry == nil {
		return nil
	}
	if e.components == nil {
		e.components = make(map[TypeID]any)
	}
	if existing, ok := e.components[ct.id]; ok {
		return existing.(*T)
	}

	v := entry.get().(*T)
	e.components[ct.id] = v
	e.store.registry.incLive(ct.id)
	e.store.queries.onComponentAdded(e, ct.id)
	e.store.dispatcher.Dispatch(EventComponentAdded, e, ct.id)
	return v
}

// AddComponentWith is AddComponent with an initial value: once a fresh
// instance of T has been acquired (or the already-attached instance found,
// for the no-op case), values is applied onto it — via the component's
// registered Copy function if one was supplied at RegisterComponent time,
// falling back to a field-by-field reflect.Value assignment otherwise.
// Matches spec.md §4.2's "prefer the instance's copy(values); else
// field-wise assign values onto the instance."
func AddComponentWith[T any](e *Entity, ct ComponentType[T], values *T) *T {
	v := AddComponent(e, ct)
	if v == nil || values == nil {
		return v
	}
	if entry := e.store.registry.entry(ct.id); entry != nil && entry.copyInto != nil {
		entry.copyInto(v, values)
		return v
	}
	assignFields(v, values)
	return v
}

// assignFields copies every exported field of src onto dst by reflection,
// for component types that didn't register a CopierFunc.
func assignFields[T any](dst, src *T) {
	dv := reflect.ValueOf(dst).Elem()
	sv := reflect.ValueOf(src).Elem()
	for i := 0; i < dv.NumField(); i++ {
		f := dv.Field(i)
		if !f.CanSet() {
			continue
		}
		f.Set(sv.Field(i))
	}
}

// GetComponent returns the entity's current instance of T without firing a
// COMPONENT_CHANGED event. Use this for read-only access inside a system.
func GetComponent[T any](e *Entity, ct ComponentType[T]) (*T, bool) {
	v, ok := e.components[ct.id]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// GetMutableComponent returns the entity's current instance of T and fires
// a COMPONENT_CHANGED event, once, on every reactive query the entity
// currently belongs to — the caller is presumed to be about to mutate the
// value, so no dirty-diffing is attempted. A query only pays this cost once
// something has subscribed to its OnComponentChanged.
func GetMutableComponent[T any](e *Entity, ct ComponentType[T]) (*T, bool) {
	v, ok := e.components[ct.id]
	if !ok {
		return nil, false
	}
	for q := range e.queries {
		if q.reactive {
			q.dispatcher.Dispatch(EventComponentChanged, e, ct.id)
		}
	}
	return v.(*T), true
}

// GetRemovedComponent returns the last value removed from the entity for
// type T, as long as CommitDeferred hasn't yet released it back to the
// pool. Systems that run after removal but before frame end use this to
// observe the value a component had at the moment it was removed.
func GetRemovedComponent[T any](e *Entity, ct ComponentType[T]) (*T, bool) {
	if e.removed == nil {
		return nil, false
	}
	v, ok := e.removed[ct.id]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// RemoveComponent stages the entity's instance of T for removal: it drops
// out of every query whose term references ct immediately, but the
// instance itself is not returned to its pool until CommitDeferred, so
// GetRemovedComponent can still observe it until then. Returns false if
// the entity did not carry the component.
func RemoveComponent[T any](e *Entity, ct ComponentType[T]) bool {
	return removeComponent(e, ct.id, false)
}

// RemoveComponentForce is RemoveComponent with immediate release: the
// instance is returned to its pool synchronously and GetRemovedComponent
// will not find it, even before CommitDeferred runs.
func RemoveComponentForce[T any](e *Entity, ct ComponentType[T]) bool {
	return removeComponent(e, ct.id, true)
}

func removeComponent(e *Entity, id TypeID, force bool) bool {
	if !e.alive {
		return false
	}
	if !e.HasComponent(id) {
		return false
	}
	e.store.removeComponent(e, id, force)
	return true
}
