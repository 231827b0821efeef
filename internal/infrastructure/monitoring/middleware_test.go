package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashgrove/ecsforge/internal/domain/ecs"
)

type widgetComponent struct{ N int }

func resetWidget(w *widgetComponent) { w.N = 0 }

// TestWorldMetricsMiddlewarePoll exercises Poll end to end against a real
// World: it must read World.Stats() synchronously (no background goroutine,
// per spec.md §5) and push every gauge the collector exposes, and calling it
// repeatedly must never panic on a negative counter delta.
//
// Only one MetricsCollector is built in this whole package's test run:
// promauto registers every gauge/counter into the global default Prometheus
// registry, and a second NewMetricsCollector call would panic on duplicate
// registration.
func TestWorldMetricsMiddlewarePoll(t *testing.T) {
	collector := NewMetricsCollector()
	world := ecs.NewWorld()
	widget := ecs.RegisterComponent(world.Registry(), ecs.ComponentOptions[widgetComponent]{Reset: resetWidget})

	e1 := world.CreateEntity()
	ecs.AddComponent(e1, widget)
	e2 := world.CreateEntity()
	ecs.AddComponent(e2, widget)

	_, err := world.GetQuery(ecs.C(widget))
	require.NoError(t, err)

	middleware := NewWorldMetricsMiddleware(collector, world)
	middleware.Poll()

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.entityCount))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.queryCount))
	assert.Equal(t, float64(2), testutil.ToFloat64(collector.componentLive.WithLabelValues("monitoring.widgetComponent")))

	assert.NotPanics(t, func() { middleware.Poll() }, "a second poll must report a zero, not negative, event-count delta")
}
