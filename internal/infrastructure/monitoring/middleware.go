package monitoring

import (
	"runtime"
	"time"

	"github.com/ashgrove/ecsforge/internal/domain/ecs"
)

// WorldMetricsMiddleware polls a World's diagnostic snapshot and runtime
// memory stats and pushes them into a MetricsCollector. It owns no state of
// the World's own — it only ever reads World.Stats() — but per spec.md §5
// the World has exactly one execution cursor and no internal
// synchronization, so Poll must be called from the same goroutine that
// drives World.Execute, never concurrently with it from a background timer.
type WorldMetricsMiddleware struct {
	collector *MetricsCollector
	world     *ecs.World

	lastFired   map[string]int
	lastHandled map[string]int
}

// NewWorldMetricsMiddleware creates a middleware polling world's stats
// into collector.
func NewWorldMetricsMiddleware(collector *MetricsCollector, world *ecs.World) *WorldMetricsMiddleware {
	return &WorldMetricsMiddleware{
		collector:   collector,
		world:       world,
		lastFired:   make(map[string]int),
		lastHandled: make(map[string]int),
	}
}

// Poll takes one World.Stats() snapshot and pushes it into the collector,
// along with a runtime memory snapshot. Call it from the driver loop's own
// stats ticker, interleaved with but never concurrent to World.Execute.
func (m *WorldMetricsMiddleware) Poll() {
	stats := m.world.Stats()
	m.collector.UpdateWorldGauges(stats.EntityCount, stats.Systems, stats.Queries)

	for _, c := range stats.Components {
		m.collector.UpdateComponentGauges(c.Name, c.LiveCount, c.PoolUsed, c.PoolFree)
	}

	for _, e := range stats.Events {
		firedDelta := e.Fired - m.lastFired[e.Name]
		handledDelta := e.Handled - m.lastHandled[e.Name]
		m.collector.RecordEventCounters(e.Name, firedDelta, handledDelta)
		m.lastFired[e.Name] = e.Fired
		m.lastHandled[e.Name] = e.Handled
	}

	m.collectRuntimeMetrics()
}

func (m *WorldMetricsMiddleware) collectRuntimeMetrics() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	m.collector.UpdateMemoryUsage(stats.Alloc)
	m.collector.UpdateGoroutineCount(runtime.NumGoroutine())

	if stats.NumGC > 0 {
		lastPause := stats.PauseNs[(stats.NumGC+255)%256]
		m.collector.RecordGCPause(time.Duration(lastPause))
	}
}

// RecordFrame forwards one World.Execute call's timing to the collector.
// Call this from the driver loop around each Execute call, since
// MetricsCollector has no way to observe frame duration on its own.
func (m *WorldMetricsMiddleware) RecordFrame(duration time.Duration, err error) {
	m.collector.RecordFrame(duration, err)
}
