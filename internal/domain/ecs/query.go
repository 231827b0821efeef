package ecs

import (
	"sort"
	"strconv"
	"strings"
)

// QueryTerm is one clause of a query: "has component X" or "lacks
// component X". Build terms with C[T] and Not[T]; pass them to
// QueryEngine.GetQuery.
type QueryTerm struct {
	typeID TypeID
	negate bool
}

// C builds a positive query term: entities must carry this component.
func C[T any](ct ComponentType[T]) QueryTerm {
	return QueryTerm{typeID: ct.id}
}

// Not builds a negative query term: entities must not carry this
// component.
func Not[T any](ct ComponentType[T]) QueryTerm {
	return QueryTerm{typeID: ct.id, negate: true}
}

// Query is a live, incrementally maintained view over the entities
// matching a fixed set of positive and negative component terms. Its
// membership is updated by the owning QueryEngine as components and
// entities are added and removed; calling Entities never rescans the
// world.
//
// Each Query owns its own EventDispatcher, firing ENTITY_ADDED and
// ENTITY_REMOVED as membership changes, and COMPONENT_CHANGED when a
// consumer mutably borrows a component on a member entity — but only once
// reactive is true, which OnComponentChanged sets the first time anything
// subscribes. A non-reactive query never pays for change delivery.
type Query struct {
	positive []TypeID
	negative []TypeID
	members  map[EntityID]*Entity

	dispatcher *EventDispatcher
	reactive   bool
}

// Entities returns every entity currently matching the query. The
// returned slice is a fresh copy safe to range over even if the query's
// membership changes mid-iteration (e.g. a system that removes
// components from entities as it visits them).
func (q *Query) Entities() []*Entity {
	out := make([]*Entity, 0, len(q.members))
	for _, e := range q.members {
		out = append(out, e)
	}
	return out
}

// Count returns the number of entities currently matching the query
// without allocating a slice.
func (q *Query) Count() int { return len(q.members) }

// OnEntityAdded subscribes l to fire every time an entity starts matching
// this query.
func (q *Query) OnEntityAdded(l Listener) ListenerHandle {
	return q.dispatcher.Add(EventEntityAdded, l)
}

// OnEntityRemoved subscribes l to fire every time an entity stops matching
// this query (including when the entity itself is removed from the world).
func (q *Query) OnEntityRemoved(l Listener) ListenerHandle {
	return q.dispatcher.Add(EventEntityRemoved, l)
}

// OnComponentChanged subscribes l to fire whenever GetMutableComponent is
// called on a member entity. Subscribing marks the query reactive: from
// this point on, every GetMutableComponent call on a member entity pays the
// cost of a dispatch, even if l is later removed.
func (q *Query) OnComponentChanged(l Listener) ListenerHandle {
	q.reactive = true
	return q.dispatcher.Add(EventComponentChanged, l)
}

// Reactive reports whether this query has ever had a COMPONENT_CHANGED
// subscriber.
func (q *Query) Reactive() bool { return q.reactive }

// Unsubscribe removes a listener previously returned by OnEntityAdded,
// OnEntityRemoved, or OnComponentChanged.
func (q *Query) Unsubscribe(h ListenerHandle) { q.dispatcher.Remove(h) }

func (q *Query) isMatch(e *Entity) bool {
	for _, id := range q.positive {
		if !e.HasComponent(id) {
			return false
		}
	}
	for _, id := range q.negative {
		if e.HasComponent(id) {
			return false
		}
	}
	return true
}

func (q *Query) references(id TypeID) bool {
	for _, t := range q.positive {
		if t == id {
			return true
		}
	}
	for _, t := range q.negative {
		if t == id {
			return true
		}
	}
	return false
}

// QueryEngine owns every live Query in a World and keeps their membership
// in sync as the EntityStore mutates entities. Queries are cached by
// signature: calling GetQuery twice with the same terms (in any order)
// returns the same *Query instance.
type QueryEngine struct {
	store   *EntityStore
	queries map[string]*Query
	order   []*Query
}

func newQueryEngine() *QueryEngine {
	return &QueryEngine{queries: make(map[string]*Query)}
}

func (qe *QueryEngine) bindStore(store *EntityStore) {
	qe.store = store
}

// GetQuery returns the Query matching the given terms, creating and
// seeding it against every currently-alive entity if this is the first
// time this exact term set has been requested. A query with no positive
// terms is rejected: a query over negations alone would match every entity
// that merely lacks the excluded types, which is never what a caller
// actually wants.
func (qe *QueryEngine) GetQuery(terms ...QueryTerm) (*Query, error) {
	var pos, neg []TypeID
	for _, t := range terms {
		if t.negate {
			neg = append(neg, t.typeID)
		} else {
			pos = append(pos, t.typeID)
		}
	}
	if len(pos) == 0 {
		return nil, ErrEmptyQuery
	}
	sort.Slice(pos, func(i, j int) bool { return pos[i] < pos[j] })
	sort.Slice(neg, func(i, j int) bool { return neg[i] < neg[j] })

	sig := signature(pos, neg)
	if q, ok := qe.queries[sig]; ok {
		return q, nil
	}

	q := &Query{
		positive:   pos,
		negative:   neg,
		members:    make(map[EntityID]*Entity),
		dispatcher: newEventDispatcher(),
	}
	for _, e := range qe.store.GetAllEntities() {
		if q.isMatch(e) {
			q.members[e.id] = e
			e.addQueryBackEdge(q)
		}
	}
	qe.queries[sig] = q
	qe.order = append(qe.order, q)
	return q, nil
}

func signature(pos, neg []TypeID) string {
	var sb strings.Builder
	for _, id := range pos {
		sb.WriteByte('+')
		sb.WriteString(strconv.Itoa(int(id)))
		sb.WriteByte(',')
	}
	for _, id := range neg {
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(int(id)))
		sb.WriteByte(',')
	}
	return sb.String()
}

func (qe *QueryEngine) onComponentAdded(e *Entity, id TypeID) {
	qe.resync(e, id)
}

func (qe *QueryEngine) onComponentRemoved(e *Entity, id TypeID) {
	qe.resync(e, id)
}

// resync walks queries in registration order (the order GetQuery first
// created them) rather than qe.queries' map order, so that a single
// mutation touching several queries dispatches ENTITY_ADDED/ENTITY_REMOVED
// in a deterministic, reproducible sequence per spec.md §4.3.
func (qe *QueryEngine) resync(e *Entity, changed TypeID) {
	for _, q := range qe.order {
		if !q.references(changed) {
			continue
		}
		_, present := q.members[e.id]
		matches := q.isMatch(e)
		switch {
		case matches && !present:
			q.members[e.id] = e
			e.addQueryBackEdge(q)
			q.dispatcher.Dispatch(EventEntityAdded, e)
		case !matches && present:
			delete(q.members, e.id)
			e.removeQueryBackEdge(q)
			q.dispatcher.Dispatch(EventEntityRemoved, e)
		}
	}
}

// onEntityRemoved drops e from every query it currently belongs to, using
// the entity's own back-edge set rather than scanning every live query —
// the back-edge list exists precisely so this is O(queries the entity is
// actually in), not O(all queries in the engine).
func (qe *QueryEngine) onEntityRemoved(e *Entity) {
	for q := range e.queries {
		delete(q.members, e.id)
		q.dispatcher.Dispatch(EventEntityRemoved, e)
	}
	e.clearQueryBackEdges()
}

func (qe *QueryEngine) queryCount() int { return len(qe.queries) }
