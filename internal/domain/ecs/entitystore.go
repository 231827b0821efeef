package ecs

type componentRelease struct {
	entity *Entity
	typeID TypeID
	value  any
}

// EntityStore owns the lifetime of every Entity in a World: issuing ids,
// tracking which entities are alive, and staging removed entities and
// components until CommitDeferred releases their pooled storage. It is
// the concrete implementation of the "deferred removal" rule in the
// system's concurrency model: dropping out of queries happens
// immediately, but pool release waits for frame end so that a system
// which removed a component earlier in the same frame can still observe
// the value via GetRemovedComponent.
type EntityStore struct {
	registry   *ComponentRegistry
	queries    *QueryEngine
	dispatcher *EventDispatcher

	entityPool *Pool[Entity]
	byID       map[EntityID]*Entity
	nextID     EntityID

	pendingEntityRemoval    []*Entity
	pendingComponentRelease []componentRelease
}

func newEntityStore(registry *ComponentRegistry, queries *QueryEngine, dispatcher *EventDispatcher) *EntityStore {
	reset := func(e *Entity) {
		e.id = 0
		e.store = nil
		e.alive = false
		for k := range e.components {
			delete(e.components, k)
		}
		for k := range e.removed {
			delete(e.removed, k)
		}
		e.clearQueryBackEdges()
	}
	return &EntityStore{
		registry:   registry,
		queries:    queries,
		dispatcher: dispatcher,
		entityPool: NewPool[Entity](reset, 0),
		byID:       make(map[EntityID]*Entity),
	}
}

// CreateEntity allocates a new, empty, live entity. Its id is unique for
// the lifetime of the store even when the backing *Entity struct was drawn
// from the free list.
func (s *EntityStore) CreateEntity() *Entity {
	e := s.entityPool.Get()
	s.nextID++
	e.id = s.nextID
	e.store = s
	e.alive = true
	s.byID[e.id] = e
	s.dispatcher.Dispatch(EventEntityCreated, e)
	return e
}

// GetEntity looks up a live entity by id. It returns false for an unknown
// or already-removed id.
func (s *EntityStore) GetEntity(id EntityID) (*Entity, bool) {
	e, ok := s.byID[id]
	if !ok || !e.alive {
		return nil, false
	}
	return e, true
}

// GetAllEntities returns every currently-alive entity. The returned slice
// is a fresh copy; mutating it does not affect the store.
func (s *EntityStore) GetAllEntities() []*Entity {
	out := make([]*Entity, 0, len(s.byID))
	for _, e := range s.byID {
		if e.alive {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of currently-alive entities.
func (s *EntityStore) Count() int { return len(s.byID) }

// removeComponent stages (or, if force, immediately releases) entity e's
// instance of the given component type. It is a no-op if e does not carry
// that type. COMPONENT_REMOVE fires on the world dispatcher unconditionally
// before either branch, and query membership is resynced immediately
// either way — only the pool release timing differs between the two
// branches, per spec.md §4.2.
func (s *EntityStore) removeComponent(e *Entity, id TypeID, force bool) {
	v, ok := e.components[id]
	if !ok {
		return
	}
	s.dispatcher.Dispatch(EventComponentRemove, e, id)

	delete(e.components, id)
	s.registry.decLive(id)
	s.queries.onComponentRemoved(e, id)

	if force {
		if entry := s.registry.entry(id); entry != nil {
			entry.put(v)
		}
		if e.removed != nil {
			delete(e.removed, id)
		}
		return
	}

	if e.removed == nil {
		e.removed = make(map[TypeID]any)
	}
	e.removed[id] = v
	s.pendingComponentRelease = append(s.pendingComponentRelease, componentRelease{entity: e, typeID: id, value: v})
}

// removeEntity stages (or, if force, immediately releases) e and every
// component it carries. ENTITY_REMOVED fires on the world dispatcher and
// the entity drops out of every query it belongs to before any component
// detachment happens, matching spec.md §4.2's ordering.
func (s *EntityStore) removeEntity(e *Entity, force bool) {
	s.dispatcher.Dispatch(EventEntityRemoved, e)
	s.queries.onEntityRemoved(e)
	delete(s.byID, e.id)

	if force {
		ids := make([]TypeID, 0, len(e.components))
		for id := range e.components {
			ids = append(ids, id)
		}
		for _, id := range ids {
			v := e.components[id]
			delete(e.components, id)
			s.registry.decLive(id)
			if entry := s.registry.entry(id); entry != nil {
				entry.put(v)
			}
		}
		e.alive = false
		e.store = nil
		s.entityPool.Put(e)
		return
	}

	e.removeAllComponents(false)
	e.alive = false
	s.pendingEntityRemoval = append(s.pendingEntityRemoval, e)
}

// CommitDeferred releases every component and entity staged for removal
// since the last call back to their respective pools. Callers run this
// once per frame, after every system has had a chance to observe removed
// state via GetRemovedComponent.
func (s *EntityStore) CommitDeferred() {
	for _, rel := range s.pendingComponentRelease {
		if entry := s.registry.entry(rel.typeID); entry != nil {
			entry.put(rel.value)
		}
		if rel.entity.removed != nil {
			delete(rel.entity.removed, rel.typeID)
		}
	}
	s.pendingComponentRelease = s.pendingComponentRelease[:0]

	for _, e := range s.pendingEntityRemoval {
		s.entityPool.Put(e)
	}
	s.pendingEntityRemoval = s.pendingEntityRemoval[:0]
}

// Clear removes every entity immediately, bypassing deferred staging.
// Intended for test teardown and World.Clear, not for use mid-frame.
func (s *EntityStore) Clear() {
	for _, e := range s.byID {
		e.alive = false
	}
	s.byID = make(map[EntityID]*Entity)
	s.pendingEntityRemoval = s.pendingEntityRemoval[:0]
	s.pendingComponentRelease = s.pendingComponentRelease[:0]
}
