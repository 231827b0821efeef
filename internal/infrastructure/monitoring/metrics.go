package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector exposes a World's runtime diagnostics as Prometheus
// metrics over an HTTP /metrics endpoint.
type MetricsCollector struct {
	entityCount    prometheus.Gauge
	systemCount    prometheus.Gauge
	queryCount     prometheus.Gauge
	componentLive  *prometheus.GaugeVec
	componentPool  *prometheus.GaugeVec
	eventsFired    *prometheus.CounterVec
	eventsHandled  *prometheus.CounterVec
	frameDuration  prometheus.Histogram
	systemErrors   prometheus.Counter
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Histogram

	mu     sync.Mutex
	server *http.Server
}

// NewMetricsCollector registers every metric this collector exposes with
// the default Prometheus registry via promauto, matching every metric in
// the core's World.Stats() snapshot.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		entityCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ecsforge_entity_count",
			Help: "Number of currently-alive entities",
		}),
		systemCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ecsforge_system_count",
			Help: "Number of registered systems",
		}),
		queryCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ecsforge_query_count",
			Help: "Number of distinct live queries",
		}),
		componentLive: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecsforge_component_live_count",
			Help: "Number of entities currently carrying a component type",
		}, []string{"component"}),
		componentPool: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecsforge_component_pool_size",
			Help: "Total instances owned by a component type's pool",
		}, []string{"component", "state"}),
		eventsFired: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ecsforge_events_fired_total",
			Help: "Number of times an event name was dispatched",
		}, []string{"event"}),
		eventsHandled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ecsforge_events_handled_total",
			Help: "Number of listener invocations produced by dispatching an event",
		}, []string{"event"}),
		frameDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecsforge_frame_duration_seconds",
			Help:    "Wall-clock time spent in World.Execute",
			Buckets: prometheus.DefBuckets,
		}),
		systemErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ecsforge_system_errors_total",
			Help: "Number of system errors (including recovered panics)",
		}),
		memoryUsage: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ecsforge_memory_usage_bytes",
			Help: "Current heap allocation",
		}),
		goroutineCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ecsforge_goroutine_count",
			Help: "Current number of goroutines",
		}),
		gcPauseTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecsforge_gc_pause_seconds",
			Help:    "Garbage collector pause durations",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// StartServer starts the Prometheus metrics HTTP server.
func (mc *MetricsCollector) StartServer(port int) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.server != nil {
		return fmt.Errorf("metrics server already running")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mc.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := mc.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Metrics server error: %v\n", err)
		}
	}()

	return nil
}

// StopServer stops the metrics server.
func (mc *MetricsCollector) StopServer() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := mc.server.Shutdown(ctx)
	mc.server = nil
	return err
}

// RecordFrame records one World.Execute call's duration and whether it
// returned an error.
func (mc *MetricsCollector) RecordFrame(duration time.Duration, err error) {
	mc.frameDuration.Observe(duration.Seconds())
	if err != nil {
		mc.systemErrors.Inc()
	}
}

// UpdateWorldGauges sets the entity/system/query gauges from a
// World.Stats() snapshot. It takes individual fields rather than
// importing the ecs package directly, so monitoring has no dependency on
// the ECS core.
func (mc *MetricsCollector) UpdateWorldGauges(entityCount, systemCount, queryCount int) {
	mc.entityCount.Set(float64(entityCount))
	mc.systemCount.Set(float64(systemCount))
	mc.queryCount.Set(float64(queryCount))
}

// UpdateComponentGauges reports one component type's live count and pool
// occupancy.
func (mc *MetricsCollector) UpdateComponentGauges(name string, live, used, free int) {
	mc.componentLive.WithLabelValues(name).Set(float64(live))
	mc.componentPool.WithLabelValues(name, "used").Set(float64(used))
	mc.componentPool.WithLabelValues(name, "free").Set(float64(free))
}

// RecordEventCounters reports one event name's fired/handled deltas since
// the last poll.
func (mc *MetricsCollector) RecordEventCounters(name string, firedDelta, handledDelta int) {
	if firedDelta > 0 {
		mc.eventsFired.WithLabelValues(name).Add(float64(firedDelta))
	}
	if handledDelta > 0 {
		mc.eventsHandled.WithLabelValues(name).Add(float64(handledDelta))
	}
}

// UpdateMemoryUsage reports current heap allocation.
func (mc *MetricsCollector) UpdateMemoryUsage(bytes uint64) {
	mc.memoryUsage.Set(float64(bytes))
}

// UpdateGoroutineCount reports the current goroutine count.
func (mc *MetricsCollector) UpdateGoroutineCount(count int) {
	mc.goroutineCount.Set(float64(count))
}

// RecordGCPause records one garbage collector pause duration.
func (mc *MetricsCollector) RecordGCPause(duration time.Duration) {
	mc.gcPauseTime.Observe(duration.Seconds())
}
