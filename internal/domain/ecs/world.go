package ecs

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ashgrove/ecsforge/internal/infrastructure/logging"
)

// World is the façade over every ECS subsystem: component registration,
// entity storage, queries, the event dispatcher, and the system
// scheduler. A program typically creates exactly one World (or one per
// independent simulation) and drives it by calling Execute once per
// frame.
type World struct {
	id uuid.UUID

	registry   *ComponentRegistry
	store      *EntityStore
	queries    *QueryEngine
	dispatcher *EventDispatcher
	scheduler  *Scheduler

	running   bool
	resources map[string]any
}

// WorldOption configures a World at construction time.
type WorldOption func(*World)

// WithResource seeds the World with a named resource, equivalent to
// calling AddResource immediately after NewWorld.
func WithResource(key string, value any) WorldOption {
	return func(w *World) { w.resources[key] = value }
}

// NewWorld constructs a World with its own component registry, entity
// store, query engine, event dispatcher, and scheduler, all wired
// together and ready to use.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		id:        uuid.New(),
		resources: make(map[string]any),
		running:   true,
	}
	w.registry = NewComponentRegistry()
	w.dispatcher = newEventDispatcher()
	w.queries = newQueryEngine()
	w.store = newEntityStore(w.registry, w.queries, w.dispatcher)
	w.queries.bindStore(w.store)
	w.scheduler = newScheduler(w)

	for _, opt := range opts {
		opt(w)
	}
	w.dispatcher.Dispatch(EventWorldCreated, w)
	return w
}

// ID returns this World's unique identifier.
func (w *World) ID() uuid.UUID { return w.id }

// Registry returns the World's component registry, for use by
// RegisterComponent[T].
func (w *World) Registry() *ComponentRegistry { return w.registry }

// CreateEntity creates a new, empty, live entity.
func (w *World) CreateEntity() *Entity { return w.store.CreateEntity() }

// GetEntity looks up a live entity by id.
func (w *World) GetEntity(id EntityID) (*Entity, bool) { return w.store.GetEntity(id) }

// DestroyEntity stages the entity with the given id for removal. id not
// matching any live entity — never issued, or already removed — is a
// programming-contract failure per spec.md §4.2/§7 and fails loudly with
// ErrUnknownEntity rather than silently doing nothing.
func (w *World) DestroyEntity(id EntityID) error {
	e, ok := w.store.GetEntity(id)
	if !ok {
		return fmt.Errorf("ecs: destroy entity %d: %w", id, ErrUnknownEntity)
	}
	e.Remove()
	return nil
}

// GetAllEntities returns every currently-alive entity.
func (w *World) GetAllEntities() []*Entity { return w.store.GetAllEntities() }

// GetQuery returns the live query matching the given terms, building and
// seeding it on first use.
func (w *World) GetQuery(terms ...QueryTerm) (*Query, error) {
	return w.queries.GetQuery(terms...)
}

// RegisterSystem adds a system to the schedule. See Scheduler.RegisterSystem.
func (w *World) RegisterSystem(name string, sys System, priority int) error {
	return w.scheduler.RegisterSystem(name, sys, priority)
}

// GetSystem returns the system registered under name.
func (w *World) GetSystem(name string) (System, bool) { return w.scheduler.GetSystem(name) }

// GetSystems returns every registered system in scheduled order.
func (w *World) GetSystems() []System { return w.scheduler.GetSystems() }

// RemoveSystem unregisters a system. See Scheduler.RemoveSystem.
func (w *World) RemoveSystem(key any) error { return w.scheduler.RemoveSystem(key) }

// SetSystemEnabled toggles whether the named system runs on future Execute
// calls without unregistering it. See Scheduler.SetEnabled.
func (w *World) SetSystemEnabled(name string, enabled bool) error {
	return w.scheduler.SetEnabled(name, enabled)
}

// IsSystemEnabled reports whether the named system currently runs on
// Execute.
func (w *World) IsSystemEnabled(name string) (bool, error) { return w.scheduler.IsEnabled(name) }

// ErrorStats returns aggregate statistics over every panic or error a
// system has raised during Execute. See Scheduler.ErrorStats.
func (w *World) ErrorStats() map[string]interface{} { return w.scheduler.ErrorStats() }

// PerformanceReport summarizes per-system execution timings collected
// across every Execute call so far. See Scheduler.PerformanceReport.
func (w *World) PerformanceReport() *logging.PerformanceReport { return w.scheduler.PerformanceReport() }

// AddEventListener subscribes l to the named event.
func (w *World) AddEventListener(name string, l Listener) ListenerHandle {
	return w.dispatcher.Add(name, l)
}

// RemoveEventListener unsubscribes a listener previously added via
// AddEventListener.
func (w *World) RemoveEventListener(h ListenerHandle) { w.dispatcher.Remove(h) }

// EmitEvent fires the named event to every current listener.
func (w *World) EmitEvent(name string, args ...any) { w.dispatcher.Dispatch(name, args...) }

// Stop pauses the World: Execute becomes a no-op until Play is called.
func (w *World) Stop() { w.running = false }

// Play resumes a World previously paused with Stop.
func (w *World) Play() { w.running = true }

// IsRunning reports whether the World will execute systems on the next
// Execute call.
func (w *World) IsRunning() bool { return w.running }

// Execute runs one frame: every scheduled, eligible system in priority
// order, followed by releasing any component or entity storage staged for
// removal during the frame. It is a no-op if the World is stopped.
func (w *World) Execute(dt time.Duration) error {
	if !w.running {
		return nil
	}
	err := w.scheduler.Execute(dt.Seconds())
	w.store.CommitDeferred()
	return err
}

// AddResource attaches a named, arbitrary value to the World, for systems
// that need shared state outside the entity/component model (e.g.
// configuration, a random source, an asset table).
func (w *World) AddResource(key string, value any) { w.resources[key] = value }

// GetResource returns the named resource, or nil if none was set.
func (w *World) GetResource(key string) any { return w.resources[key] }

// RemoveResource removes the named resource.
func (w *World) RemoveResource(key string) { delete(w.resources, key) }

// Clear removes every entity and resource immediately. Registered
// component types, systems, and queries are left intact so the World can
// be reused.
func (w *World) Clear() {
	w.store.Clear()
	w.resources = make(map[string]any)
}

// ResetDiagnostics zeroes the event fired/handled counters reported by
// Stats, without touching listener registrations.
func (w *World) ResetDiagnostics() { w.dispatcher.ResetCounters() }

// WorldStats is a diagnostic snapshot of a World's internal state, safe to
// poll from a metrics exporter.
type WorldStats struct {
	EntityCount int
	Systems     int
	Queries     int
	Components  []ComponentStats
	Events      []EventStats
	ErrorStats  map[string]interface{}
}

// Stats returns a snapshot of the World's current size and diagnostic
// counters, including aggregate error statistics from the scheduler's
// ErrorTracker (see World.ErrorStats).
func (w *World) Stats() WorldStats {
	return WorldStats{
		EntityCount: w.store.Count(),
		Systems:     len(w.scheduler.systems),
		Queries:     w.queries.queryCount(),
		Components:  w.registry.stats(),
		Events:      w.dispatcher.stats(),
		ErrorStats:  w.scheduler.ErrorStats(),
	}
}

// WorldBuilder fluently assembles a World: register systems and seed
// resources before the first Execute call.
type WorldBuilder struct {
	world *World
	errs  []error
}

// NewWorldBuilder starts building a fresh World.
func NewWorldBuilder() *WorldBuilder {
	return &WorldBuilder{world: NewWorld()}
}

// WithSystem registers a system on the World under construction.
func (b *WorldBuilder) WithSystem(name string, sys System, priority int) *WorldBuilder {
	if err := b.world.RegisterSystem(name, sys, priority); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// WithResource seeds a named resource on the World under construction.
func (b *WorldBuilder) WithResource(key string, value any) *WorldBuilder {
	b.world.AddResource(key, value)
	return b
}

// Build returns the assembled World, and any error encountered registering
// a system along the way (e.g. a duplicate name).
func (b *WorldBuilder) Build() (*World, error) {
	return b.world, errors.Join(b.errs...)
}
