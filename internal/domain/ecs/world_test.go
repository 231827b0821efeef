package ecs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorld(t *testing.T) {
	w := NewWorld()
	assert.NotNil(t, w)
	assert.NotEqual(t, w.ID().String(), "")
}

func TestWorldCreatedFiresOnceDuringNewWorld(t *testing.T) {
	var seen []*World
	fired := false
	w := NewWorld(func(w *World) {
		w.AddEventListener(EventWorldCreated, func(args ...any) {
			fired = true
			seen = append(seen, args[0].(*World))
		})
	})

	assert.True(t, fired, "WORLD_CREATED must fire before NewWorld returns")
	assert.Equal(t, []*World{w}, seen)

	w.EmitEvent(EventWorldCreated, w)
	assert.Len(t, seen, 2, "subsequent manual emits are not deduplicated; only NewWorld's own dispatch is one-shot")
}

func TestWorldResources(t *testing.T) {
	w := NewWorld(WithResource("seeded", 7))
	assert.Equal(t, 7, w.GetResource("seeded"))

	w.AddResource("name", "arena")
	assert.Equal(t, "arena", w.GetResource("name"))

	w.RemoveResource("name")
	assert.Nil(t, w.GetResource("name"))
}

func TestWorldEntityLifecycle(t *testing.T) {
	w, pos, _, _ := newTestWorld()

	e1 := w.CreateEntity()
	e2 := w.CreateEntity()
	AddComponent(e1, pos)
	AddComponent(e2, pos)
	assert.NotEqual(t, e1.ID(), e2.ID())
	assert.Len(t, w.GetAllEntities(), 2)

	require.NoError(t, w.DestroyEntity(e1.ID()))
	assert.Len(t, w.GetAllEntities(), 1)
	assert.ErrorIs(t, w.DestroyEntity(e1.ID()), ErrUnknownEntity, "destroying an id that no longer resolves fails loudly")
}

func TestWorldStopAndPlay(t *testing.T) {
	w := NewWorld()
	var runs []string
	require.NoError(t, w.RegisterSystem("a", &recordingSystem{name: "a", runs: &runs}, 0))

	w.Stop()
	require.NoError(t, w.Execute(time.Millisecond))
	assert.Empty(t, runs)

	w.Play()
	require.NoError(t, w.Execute(time.Millisecond))
	assert.Equal(t, []string{"a"}, runs)
}

func TestWorldClear(t *testing.T) {
	w := NewWorld()
	w.CreateEntity()
	w.CreateEntity()
	w.AddResource("k", "v")

	w.Clear()
	assert.Empty(t, w.GetAllEntities())
	assert.Nil(t, w.GetResource("k"))
}

func TestWorldStats(t *testing.T) {
	w, pos, _, _ := newTestWorld()
	e := w.CreateEntity()
	AddComponent(e, pos)
	_, err := w.GetQuery(C(pos))
	require.NoError(t, err)

	stats := w.Stats()
	assert.Equal(t, 1, stats.EntityCount)
	assert.Equal(t, 1, stats.Queries)
	assert.Len(t, stats.Components, 3) // pos, vel, hp registered by newTestWorld
}

func TestWorldBuilder(t *testing.T) {
	var runs []string
	w, err := NewWorldBuilder().
		WithSystem("a", &recordingSystem{name: "a", runs: &runs}, 1).
		WithResource("fps", 60).
		Build()

	require.NoError(t, err)
	assert.Equal(t, 60, w.GetResource("fps"))
	_, ok := w.GetSystem("a")
	assert.True(t, ok)
}

func TestWorldBuilderSurfacesDuplicateSystemError(t *testing.T) {
	var runs []string
	_, err := NewWorldBuilder().
		WithSystem("a", &recordingSystem{name: "a", runs: &runs}, 0).
		WithSystem("a", &recordingSystem{name: "a2", runs: &runs}, 0).
		Build()
	assert.Error(t, err)
}

func TestWorldIntegrationMovement(t *testing.T) {
	w, pos, vel, _ := newTestWorld()

	require.NoError(t, w.RegisterSystem("move", &movementTestSystem{pos: pos, vel: vel}, 0))

	e := w.CreateEntity()
	p := AddComponent(e, pos)
	p.X, p.Y = 0, 0
	v := AddComponent(e, vel)
	v.DX, v.DY = 10, -5

	for i := 0; i < 4; i++ {
		require.NoError(t, w.Execute(time.Second))
	}

	final, ok := GetComponent(e, pos)
	require.True(t, ok)
	assert.Equal(t, 40.0, final.X)
	assert.Equal(t, -20.0, final.Y)
}

type movementTestSystem struct {
	pos ComponentType[PositionComponent]
	vel ComponentType[VelocityComponent]
	q   *Query
}

func (s *movementTestSystem) Name() string { return "move" }

func (s *movementTestSystem) Init(w *World) Bindings {
	q, _ := w.GetQuery(C(s.pos), C(s.vel))
	s.q = q
	return Bindings{Queries: map[string]QueryBinding{"main": {Query: q, Mandatory: true}}}
}

func (s *movementTestSystem) Execute(w *World, dt, elapsed float64, b Bindings) error {
	for _, e := range s.q.Entities() {
		p, _ := GetMutableComponent(e, s.pos)
		v, _ := GetComponent(e, s.vel)
		p.X += v.DX * dt
		p.Y += v.DY * dt
	}
	return nil
}
