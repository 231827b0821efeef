package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type vec2 struct {
	X, Y float64
}

func resetVec2(v *vec2) {
	v.X, v.Y = 0, 0
}

func TestPoolGrowthRate(t *testing.T) {
	p := NewPool[vec2](resetVec2, 0)

	// Starting from empty, the first Get must grow by ceil(0*0.2)+1 = 1.
	v1 := p.Get()
	assert.NotNil(t, v1)
	assert.Equal(t, 1, p.TotalSize())
	assert.Equal(t, 1, p.TotalUsed())
	assert.Equal(t, 0, p.TotalFree())

	// Returning it should make it available again without growing.
	p.Put(v1)
	assert.Equal(t, 1, p.TotalSize())
	assert.Equal(t, 0, p.TotalUsed())
	assert.Equal(t, 1, p.TotalFree())

	v2 := p.Get()
	assert.Equal(t, 1, p.TotalSize(), "reusing a freed instance must not grow the pool")
	assert.Same(t, v1, v2)

	// Free list empty again: capacity is 1, so growAmount = ceil(1*0.2)+1 = 2.
	v3 := p.Get()
	assert.Equal(t, 3, p.TotalSize())
	assert.Equal(t, 2, p.TotalUsed())
	assert.Equal(t, 1, p.TotalFree())
	_ = v3
}

// TestScenarioS6PoolGrowth is spec.md §8 scenario S6: acquiring until
// count reaches 100 then growing by ceil(100*0.2)+1 = 21 on the next
// empty-acquire.
func TestScenarioS6PoolGrowth(t *testing.T) {
	p := NewPool[vec2](resetVec2, 0)

	held := make([]*vec2, 0, 100)
	for len(held) < 100 {
		held = append(held, p.Get())
	}
	assert.Equal(t, 100, p.TotalSize())
	assert.Equal(t, 100, p.TotalUsed())
	assert.Equal(t, 0, p.TotalFree())

	held = append(held, p.Get())
	assert.Equal(t, 121, p.TotalSize(), "growAmount at capacity 100 is ceil(100*0.2)+1 = 21")
	assert.Equal(t, 101, p.TotalUsed())
	assert.Equal(t, 20, p.TotalFree())
	_ = held
}

func TestPoolResetsOnPut(t *testing.T) {
	p := NewPool[vec2](resetVec2, 0)
	v := p.Get()
	v.X, v.Y = 3, 4
	p.Put(v)

	v2 := p.Get()
	assert.Same(t, v, v2)
	assert.Equal(t, 0.0, v2.X)
	assert.Equal(t, 0.0, v2.Y)
}

func TestPoolInitialSize(t *testing.T) {
	p := NewPool[vec2](resetVec2, 5)
	assert.Equal(t, 5, p.TotalSize())
	assert.Equal(t, 5, p.TotalFree())
	assert.Equal(t, 0, p.TotalUsed())
}

func TestDegeneratePoolDoesNotRecycle(t *testing.T) {
	p := NewPool[vec2](nil, 10) // reset is nil: non-poolable
	assert.False(t, p.Poolable())

	v1 := p.Get()
	p.Put(v1)
	v2 := p.Get()
	assert.NotSame(t, v1, v2, "a non-poolable pool must never hand back a recycled instance")
}
