package ecs

// EventComponentChanged is the name fired on a Query's own dispatcher by
// GetMutableComponent, once per reactive query the entity belongs to, every
// time it is called, regardless of whether the caller actually mutates the
// value — there is no dirty-diffing. Listeners receive (*Entity, TypeID).
const EventComponentChanged = "COMPONENT_CHANGED"

// EventEntityAdded and EventEntityRemoved are fired on a Query's own
// dispatcher when an entity's membership in that specific query changes.
const (
	EventEntityAdded   = "ENTITY_ADDED"
	EventEntityRemoved = "ENTITY_REMOVED"
)

// World-level lifecycle events, fired on the World's own EventDispatcher by
// EntityStore as entities and components are created, attached, staged for
// removal, and removed. These are independent of the per-Query events above
// even though ENTITY_REMOVED shares a name with one of them — the two fire
// on different dispatcher instances.
const (
	EventEntityCreated  = "ENTITY_CREATED"
	EventComponentAdded = "COMPONENT_ADDED"
	EventComponentRemove = "COMPONENT_REMOVE"
)

// EventWorldCreated fires exactly once per World, at the end of NewWorld,
// after every subsystem is wired and before any WorldOption-supplied
// listener has had a chance to miss it. Listeners receive the *World
// itself. Per spec.md §4.7, this is the façade's one-shot construction
// signal — a system that needs to run setup logic at world-creation time
// subscribes to this rather than polling World.IsRunning().
const EventWorldCreated = "WORLD_CREATED"

// Listener receives the arguments a Dispatch call was given. Unlike the
// rest of the ECS core's accessors, a Listener has no error return: a
// panicking listener aborts the remainder of that Dispatch call exactly
// as an unrecovered panic normally would, rather than being converted
// into a collected error.
type Listener func(args ...any)

type listenerEntry struct {
	id int
	fn Listener
}

// ListenerHandle identifies a previously-added Listener so it can be
// removed later. It is opaque and only meaningful to the EventDispatcher
// that issued it.
type ListenerHandle struct {
	name string
	id   int
}

// EventDispatcher is a simple named-event pub/sub bus. Dispatch snapshots
// the listener slice for an event name before iterating it, so a listener
// that adds or removes other listeners for the same event mid-dispatch
// never corrupts the in-flight iteration.
type EventDispatcher struct {
	listeners map[string][]listenerEntry
	nextID    int
	fired     map[string]int
	handled   map[string]int
}

func newEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		listeners: make(map[string][]listenerEntry),
		fired:     make(map[string]int),
		handled:   make(map[string]int),
	}
}

// Add registers a listener for the named event and returns a handle that
// can later be passed to Remove.
func (d *EventDispatcher) Add(name string, l Listener) ListenerHandle {
	d.nextID++
	id := d.nextID
	d.listeners[name] = append(d.listeners[name], listenerEntry{id: id, fn: l})
	return ListenerHandle{name: name, id: id}
}

// Remove unregisters a listener previously returned by Add. It is a no-op
// if the handle is stale.
func (d *EventDispatcher) Remove(h ListenerHandle) {
	entries := d.listeners[h.name]
	for i, e := range entries {
		if e.id == h.id {
			d.listeners[h.name] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Has reports whether any listener is currently registered for the named
// event.
func (d *EventDispatcher) Has(name string) bool {
	return len(d.listeners[name]) > 0
}

// Dispatch fires every listener currently registered for name, in
// registration order, passing args through unchanged. The listener slice
// is snapshotted before iteration begins.
func (d *EventDispatcher) Dispatch(name string, args ...any) {
	entries := d.listeners[name]
	snapshot := make([]listenerEntry, len(entries))
	copy(snapshot, entries)

	d.fired[name]++
	for _, e := range snapshot {
		e.fn(args...)
		d.handled[name]++
	}
}

// EventStats is a diagnostic snapshot of how many times an event name has
// been fired and how many listener invocations it produced.
type EventStats struct {
	Name    string
	Fired   int
	Handled int
}

func (d *EventDispatcher) stats() []EventStats {
	names := make(map[string]struct{}, len(d.fired))
	for n := range d.fired {
		names[n] = struct{}{}
	}
	for n := range d.handled {
		names[n] = struct{}{}
	}
	out := make([]EventStats, 0, len(names))
	for n := range names {
		out = append(out, EventStats{Name: n, Fired: d.fired[n], Handled: d.handled[n]})
	}
	return out
}

// ResetCounters zeroes the fired/handled diagnostic counters without
// touching listener registrations. Called once per frame by
// World.ResetDiagnostics.
func (d *EventDispatcher) ResetCounters() {
	d.fired = make(map[string]int)
	d.handled = make(map[string]int)
}
