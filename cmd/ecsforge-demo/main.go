package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashgrove/ecsforge/internal/domain/ecs"
	"github.com/ashgrove/ecsforge/internal/infrastructure/logging"
	"github.com/ashgrove/ecsforge/internal/infrastructure/monitoring"
)

var (
	metricsPort = flag.String("metrics-port", "9090", "Metrics port for Prometheus")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	env         = flag.String("env", "development", "Environment (development, production)")
	entities    = flag.Int("entities", 64, "Number of demo entities to seed")
	tickRate    = flag.Duration("tick", 16*time.Millisecond, "Fixed tick duration")
)

// Position is the demo's positional component.
type Position struct {
	X, Y float64
}

// Velocity is the demo's per-frame displacement component.
type Velocity struct {
	DX, DY float64
}

func resetPosition(p *Position) { p.X, p.Y = 0, 0 }
func resetVelocity(v *Velocity) { v.DX, v.DY = 0, 0 }

// MovementSystem advances every entity carrying both Position and Velocity
// by Velocity*dt each frame.
type MovementSystem struct {
	position ecs.ComponentType[Position]
	velocity ecs.ComponentType[Velocity]
}

func (s *MovementSystem) Name() string { return "MovementSystem" }

func (s *MovementSystem) Init(w *ecs.World) ecs.Bindings {
	moving, err := w.GetQuery(ecs.C(s.position), ecs.C(s.velocity))
	if err != nil {
		logging.Get().WithError(err).Fatal("failed to build movement query")
	}
	return ecs.Bindings{
		Queries: map[string]ecs.QueryBinding{
			"moving": {Query: moving, Mandatory: false},
		},
	}
}

func (s *MovementSystem) Execute(w *ecs.World, dt, elapsed float64, b ecs.Bindings) error {
	for _, e := range b.Queries["moving"].Query.Entities() {
		vel, ok := ecs.GetComponent(e, s.velocity)
		if !ok {
			continue
		}
		pos, ok := ecs.GetMutableComponent(e, s.position)
		if !ok {
			continue
		}
		pos.X += vel.DX * dt
		pos.Y += vel.DY * dt
	}
	return nil
}

func main() {
	flag.Parse()

	logConfig := &logging.LoggerConfig{
		Level:      parseLogLevel(*logLevel),
		Console:    true,
		JSON:       *env == "production",
		TimeFormat: time.RFC3339,
		Context: map[string]interface{}{
			"environment": *env,
			"service":     "ecsforge-demo",
		},
	}

	logManagerConfig := &logging.LogManagerConfig{
		LogDir:          "./logs",
		MaxFileSize:     100 * 1024 * 1024,
		MaxBackups:      10,
		MaxAge:          30,
		Compress:        true,
		BufferSize:      1000,
		FlushInterval:   time.Second,
		FileNamePattern: "ecsforge-%s.log",
	}

	if err := logging.Initialize(logConfig, logManagerConfig); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	logging.Info("Starting ecsforge demo runtime")
	logging.WithFields(map[string]interface{}{
		"metrics_port": *metricsPort,
		"environment":  *env,
		"entities":     *entities,
	}).Info("Runtime configuration")

	metricsCollector := monitoring.NewMetricsCollector()

	metricsPortInt := 9090
	if _, err := fmt.Sscanf(*metricsPort, "%d", &metricsPortInt); err != nil {
		log.Printf("Invalid metrics port, using default 9090: %v", err)
	}
	if err := metricsCollector.StartServer(metricsPortInt); err != nil {
		logging.WithError(err).Error("Failed to start metrics server")
	}
	logging.Infof("Metrics server started on port %d", metricsPortInt)

	world := ecs.NewWorld()

	position := ecs.RegisterComponent(world.Registry(), ecs.ComponentOptions[Position]{
		Reset: resetPosition,
	})
	velocity := ecs.RegisterComponent(world.Registry(), ecs.ComponentOptions[Velocity]{
		Reset: resetVelocity,
	})

	if err := world.RegisterSystem("movement", &MovementSystem{position: position, velocity: velocity}, 0); err != nil {
		logging.WithError(err).Fatal("failed to register movement system")
	}

	for i := 0; i < *entities; i++ {
		e := world.CreateEntity()
		ecs.AddComponent(e, position)
		vel := ecs.AddComponent(e, velocity)
		vel.DX = rand.Float64()*4 - 2
		vel.DY = rand.Float64()*4 - 2
	}

	middleware := monitoring.NewWorldMetricsMiddleware(metricsCollector, world)

	world.Play()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*tickRate)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	logging.Info("Entering fixed-tick execution loop")

loop:
	for {
		select {
		case <-ticker.C:
			start := time.Now()
			err := world.Execute(*tickRate)
			middleware.RecordFrame(time.Since(start), err)
			if err != nil {
				logging.WithError(err).Error("system execution reported errors")
			}
		case <-statsTicker.C:
			middleware.Poll()
			stats := world.Stats()
			logging.WithFields(map[string]interface{}{
				"entities": stats.EntityCount,
				"systems":  stats.Systems,
				"queries":  stats.Queries,
			}).Info("world stats")
		case <-quit:
			break loop
		}
	}

	logging.Info("Shutting down")

	if err := metricsCollector.StopServer(); err != nil {
		logging.WithError(err).Error("Error stopping metrics server")
	}

	logging.Info("Demo exited")
}

func parseLogLevel(level string) logging.LogLevel {
	switch level {
	case "debug":
		return logging.DebugLevel
	case "info":
		return logging.InfoLevel
	case "warn":
		return logging.WarnLevel
	case "error":
		return logging.ErrorLevel
	default:
		return logging.InfoLevel
	}
}
