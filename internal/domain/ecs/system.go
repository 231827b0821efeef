package ecs

// System is the minimal contract every scheduled system satisfies: a
// stable name used for lookup, removal, and diagnostics.
type System interface {
	Name() string
}

// Initializer is implemented by systems that need to resolve queries or
// subscribe to events once, at registration time, rather than on every
// Execute call. RegisterSystem calls Init exactly once and keeps the
// returned Bindings to pass back into every subsequent Execute.
type Initializer interface {
	Init(w *World) Bindings
}

// Executor is implemented by systems that do work on every scheduled
// frame. A System with no Executor is legal (e.g. a system that only
// reacts to events via a listener it registered in Init) and is simply
// skipped by Scheduler.Execute. dt is the seconds elapsed since the
// previous frame; elapsed is the cumulative seconds the owning World has
// been running, matching spec.md §2/§4.4's "execute(delta, time)".
type Executor interface {
	Execute(w *World, dt, elapsed float64, b Bindings) error
}

// QueryEventKind names which of a Query's own events a QueryBinding wants
// buffered for its owning system. These map onto the Query's dispatcher
// events per spec.md §4.4: EntityAdded -> ENTITY_ADDED, EntityRemoved ->
// ENTITY_REMOVED, EntityChanged -> COMPONENT_CHANGED (unfiltered, and
// marks the query reactive).
type QueryEventKind int

const (
	EntityAdded QueryEventKind = iota
	EntityRemoved
	EntityChanged
)

// QueryEventSub declares one query-scoped event a system wants buffered.
// Components restricts an EntityChanged subscription to firings for those
// component types only (the spec's "ComponentChanged with a component-type
// allow-list" variant); leave it empty for the unfiltered EntityChanged
// variant. Components is ignored for EntityAdded/EntityRemoved.
type QueryEventSub struct {
	Kind       QueryEventKind
	Components []TypeID
}

// QueryChangeOccurrence is one recorded EntityChanged firing: the entity
// whose component changed and which component type changed.
type QueryChangeOccurrence struct {
	Entity *Entity
	TypeID TypeID
}

// QueryBinding pairs a live Query with whether the owning system requires
// it to be non-empty in order to run at all, and with any of the query's
// own events the system asked to have buffered at registration time.
type QueryBinding struct {
	Query     *Query
	Mandatory bool
	Events    []QueryEventSub

	addedBuf   *[]*Entity
	removedBuf *[]*Entity
	changedBuf *[]QueryChangeOccurrence
}

// Added returns the entities that started matching this query's Query
// since this binding's owning system last ran, if an EntityAdded
// subscription was declared; nil otherwise.
func (b QueryBinding) Added() []*Entity {
	if b.addedBuf == nil {
		return nil
	}
	return *b.addedBuf
}

// Removed returns the entities that stopped matching this binding's Query
// since the owning system last ran, if an EntityRemoved subscription was
// declared; nil otherwise.
func (b QueryBinding) Removed() []*Entity {
	if b.removedBuf == nil {
		return nil
	}
	return *b.removedBuf
}

// Changed returns the (entity, changed component) pairs recorded via
// GetMutableComponent on this binding's Query members since the owning
// system last ran, if an EntityChanged subscription was declared; nil
// otherwise.
func (b QueryBinding) Changed() []QueryChangeOccurrence {
	if b.changedBuf == nil {
		return nil
	}
	return *b.changedBuf
}

// EventOccurrence is one recorded firing of an event a system subscribed
// to, captured between frames.
type EventOccurrence struct {
	Args []any
}

// EventBinding names an event a system listens to. Scheduler.RegisterSystem
// subscribes a listener on the system's behalf that appends every firing
// into an internal per-system buffer; Buffered returns what accumulated
// since the last Execute call. The buffer is cleared right after the
// system runs each frame, so a system never sees an occurrence twice.
type EventBinding struct {
	Name   string
	buffer *[]EventOccurrence
}

// Buffered returns the event occurrences recorded for this binding since
// the last time the owning system executed.
func (eb EventBinding) Buffered() []EventOccurrence {
	if eb.buffer == nil {
		return nil
	}
	return *eb.buffer
}

// Bindings is what Initializer.Init returns and Scheduler passes back into
// Executor.Execute every frame: the resolved queries and event
// subscriptions the system declared it needs. Systems index into Queries
// by whatever key makes sense to them (commonly a single entry keyed
// "main").
type Bindings struct {
	Queries map[string]QueryBinding
	Events  []EventBinding
}

// CanExecute reports whether every mandatory query binding currently has
// at least one matching entity. A system with no mandatory bindings can
// always execute.
func (b Bindings) CanExecute() bool {
	for _, qb := range b.Queries {
		if qb.Mandatory && qb.Query.Count() == 0 {
			return false
		}
	}
	return true
}
