package ecs

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/ashgrove/ecsforge/internal/infrastructure/logging"
)

type systemEntry struct {
	name         string
	sys          System
	priority     int
	order        int
	enabled      bool
	bindings     Bindings
	listeners    []ListenerHandle
	queryHandles []queryListenerHandle
}

// queryListenerHandle pairs a Query with a handle into that Query's own
// dispatcher, so RemoveSystem can unsubscribe listeners registered against
// queries rather than against the world dispatcher.
type queryListenerHandle struct {
	query  *Query
	handle ListenerHandle
}

// Scheduler runs registered systems in priority order once per frame. It
// is the only piece of the core that ever calls into user code, so it is
// also the only piece that recovers from panics: a system that panics is
// logged and tracked via the error tracker, and the frame continues with
// the next system rather than taking the whole World down.
type Scheduler struct {
	world      *World
	systems    []*systemEntry
	nextOrder  int
	elapsed    float64
	perf       *logging.PerformanceLogger
	errTracker *logging.ErrorTracker
}

func newScheduler(w *World) *Scheduler {
	return &Scheduler{
		world:      w,
		perf:       logging.NewPerformanceLogger(logging.Get()),
		errTracker: logging.NewErrorTracker(256, 24*time.Hour),
	}
}

// RegisterSystem adds sys to the schedule under name, running Init (if sys
// implements Initializer) to resolve its bindings and wire its event
// subscriptions. Higher priority systems run first; ties are broken by
// registration order.
func (s *Scheduler) RegisterSystem(name string, sys System, priority int) error {
	for _, e := range s.systems {
		if e.name == name {
			return ErrDuplicateSystem
		}
	}

	var bindings Bindings
	if init, ok := sys.(Initializer); ok {
		bindings = init.Init(s.world)
	}

	entry := &systemEntry{name: name, sys: sys, priority: priority, order: s.nextOrder, enabled: true}
	s.nextOrder++

	for i := range bindings.Events {
		buf := &[]EventOccurrence{}
		eventName := bindings.Events[i].Name
		h := s.world.dispatcher.Add(eventName, func(args ...any) {
			*buf = append(*buf, EventOccurrence{Args: args})
		})
		bindings.Events[i].buffer = buf
		entry.listeners = append(entry.listeners, h)
	}

	for qname, qb := range bindings.Queries {
		for _, sub := range qb.Events {
			switch sub.Kind {
			case EntityAdded:
				buf := &[]*Entity{}
				h := qb.Query.OnEntityAdded(func(args ...any) {
					*buf = append(*buf, args[0].(*Entity))
				})
				qb.addedBuf = buf
				entry.queryHandles = append(entry.queryHandles, queryListenerHandle{query: qb.Query, handle: h})
			case EntityRemoved:
				buf := &[]*Entity{}
				h := qb.Query.OnEntityRemoved(func(args ...any) {
					*buf = append(*buf, args[0].(*Entity))
				})
				qb.removedBuf = buf
				entry.queryHandles = append(entry.queryHandles, queryListenerHandle{query: qb.Query, handle: h})
			case EntityChanged:
				buf := &[]QueryChangeOccurrence{}
				allow := sub.Components
				h := qb.Query.OnComponentChanged(func(args ...any) {
					ent := args[0].(*Entity)
					tid := args[1].(TypeID)
					if len(allow) > 0 && !containsTypeID(allow, tid) {
						return
					}
					*buf = append(*buf, QueryChangeOccurrence{Entity: ent, TypeID: tid})
				})
				qb.changedBuf = buf
				entry.queryHandles = append(entry.queryHandles, queryListenerHandle{query: qb.Query, handle: h})
			}
		}
		bindings.Queries[qname] = qb
	}
	entry.bindings = bindings

	s.systems = append(s.systems, entry)
	return nil
}

func containsTypeID(ids []TypeID, id TypeID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// GetSystem returns the system registered under name.
func (s *Scheduler) GetSystem(name string) (System, bool) {
	for _, e := range s.systems {
		if e.name == name {
			return e.sys, true
		}
	}
	return nil, false
}

// GetSystems returns every registered system in scheduled order.
func (s *Scheduler) GetSystems() []System {
	s.sort()
	out := make([]System, len(s.systems))
	for i, e := range s.systems {
		out[i] = e.sys
	}
	return out
}

// RemoveSystem unregisters a system. key may be the system's registered
// name (string), the System value itself (compared by identity), or a
// reflect.Type matching the concrete type of a registered system.
func (s *Scheduler) RemoveSystem(key any) error {
	for i, e := range s.systems {
		switch k := key.(type) {
		case string:
			if e.name != k {
				continue
			}
		case reflect.Type:
			if reflect.TypeOf(e.sys) != k {
				continue
			}
		case System:
			if e.sys != k {
				continue
			}
		default:
			continue
		}
		for _, h := range e.listeners {
			s.world.dispatcher.Remove(h)
		}
		for _, qh := range e.queryHandles {
			qh.query.Unsubscribe(qh.handle)
		}
		s.systems = append(s.systems[:i], s.systems[i+1:]...)
		return nil
	}
	return ErrSystemNotFound
}

// SetEnabled toggles whether the named system runs on future Execute
// calls. A disabled system keeps its bindings (query membership, buffered
// events) live and up to date — it simply never has Executor.Execute
// called on it — matching spec.md §3/§4.4's "execute only if enabled".
func (s *Scheduler) SetEnabled(name string, enabled bool) error {
	for _, e := range s.systems {
		if e.name == name {
			e.enabled = enabled
			return nil
		}
	}
	return ErrSystemNotFound
}

// IsEnabled reports whether the named system is currently enabled.
func (s *Scheduler) IsEnabled(name string) (bool, error) {
	for _, e := range s.systems {
		if e.name == name {
			return e.enabled, nil
		}
	}
	return false, ErrSystemNotFound
}

// ErrorStats returns aggregate statistics over every panic or error a
// system has raised during Execute, as tracked by the scheduler's
// ErrorTracker.
func (s *Scheduler) ErrorStats() map[string]interface{} {
	return s.errTracker.GetErrorStats()
}

// PerformanceReport summarizes per-system execution timings collected
// across every Execute call so far.
func (s *Scheduler) PerformanceReport() *logging.PerformanceReport {
	return s.perf.GenerateReport()
}

// sort orders systems by ascending priority (lower priority runs first,
// per spec.md §4.4), ties broken by ascending registration order.
func (s *Scheduler) sort() {
	sort.SliceStable(s.systems, func(i, j int) bool {
		if s.systems[i].priority != s.systems[j].priority {
			return s.systems[i].priority < s.systems[j].priority
		}
		return s.systems[i].order < s.systems[j].order
	})
}

// Execute runs every registered Executor system in priority order, passing
// dt and the bindings resolved at registration time. A system whose
// mandatory query bindings are all empty is skipped (CanExecute gating). A
// panicking system is recovered, logged, and tracked, and does not abort
// the frame for the remaining systems. Errors returned by systems (rather
// than panics) are collected and joined into the single error Execute
// returns.
func (s *Scheduler) Execute(dt float64) error {
	s.sort()
	s.elapsed += dt

	var errs []error
	for _, e := range s.systems {
		exec, ok := e.sys.(Executor)
		if !ok {
			continue
		}
		if !e.enabled || !e.bindings.CanExecute() {
			continue
		}

		if err := s.runOne(e, exec, dt); err != nil {
			errs = append(errs, err)
		}

		for i := range e.bindings.Events {
			if buf := e.bindings.Events[i].buffer; buf != nil {
				*buf = (*buf)[:0]
			}
		}
		for _, qb := range e.bindings.Queries {
			if qb.addedBuf != nil {
				*qb.addedBuf = (*qb.addedBuf)[:0]
			}
			if qb.removedBuf != nil {
				*qb.removedBuf = (*qb.removedBuf)[:0]
			}
			if qb.changedBuf != nil {
				*qb.changedBuf = (*qb.changedBuf)[:0]
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) runOne(e *systemEntry, exec Executor, dt float64) (err error) {
	timer := s.perf.StartOperation("system." + e.name)
	defer timer.End()

	defer func() {
		if r := recover(); r != nil {
			perr := errorFromRecover(r)
			s.errTracker.TrackError(perr, map[string]interface{}{"system": e.name})
			logging.Get().WithField("system", e.name).Errorf("system panicked: %v", r)
			err = perr
		}
	}()

	if execErr := exec.Execute(s.world, dt, s.elapsed, e.bindings); execErr != nil {
		s.errTracker.TrackError(execErr, map[string]interface{}{"system": e.name})
		logging.Get().WithField("system", e.name).WithError(execErr).Error("system returned error")
		return execErr
	}
	return nil
}

func errorFromRecover(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("ecs: system panic: %w", err)
	}
	return fmt.Errorf("ecs: system panic: %v", r)
}
