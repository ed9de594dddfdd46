package ecs_test

import (
	"testing"

	"github.com/plus3/ooftn-store/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySystem(t *testing.T) {
	storage := ecs.NewStorage()
	ecs.Insert(storage, 1, Position{X: 2, Y: 3})

	ecs.ApplySystem[moveSystem, Position](storage, 1, float32(0.5))

	assert.Equal(t, Position{X: 2.5, Y: 3.5}, *ecs.Get[Position](storage, 1))
}

func TestApplySystemMissingComponent(t *testing.T) {
	storage := ecs.NewStorage()
	ecs.Insert(storage, 1, Position{X: 2, Y: 3})
	ecs.Insert(storage, 2, Velocity{DX: 1})

	assert.NotPanics(t, func() {
		ecs.ApplySystem[moveSystem, Position](storage, 2, float32(1))
		ecs.ApplySystem[moveSystem, Position](storage, 99, float32(1))
	})

	assert.False(t, ecs.Exists[Position](storage, 2))
	assert.False(t, ecs.Exists[Position](storage, 99))
	assert.Equal(t, Position{X: 2, Y: 3}, *ecs.Get[Position](storage, 1))
	assert.Equal(t, Velocity{DX: 1}, *ecs.Get[Velocity](storage, 2))
}

func TestApplySystemOnlyTouchesTarget(t *testing.T) {
	storage := ecs.NewStorage()
	ecs.Insert(storage, 1, Health{Current: 10, Max: 50})
	ecs.Insert(storage, 2, Health{Current: 10, Max: 50})

	ecs.ApplySystem[healSystem, Health](storage, 1, 100)

	assert.Equal(t, 50, ecs.Get[Health](storage, 1).Current)
	assert.Equal(t, 10, ecs.Get[Health](storage, 2).Current)
}

func TestApplySystemPrimitiveComponent(t *testing.T) {
	storage := ecs.NewStorage()
	ecs.Insert(storage, 3, Score(10))

	ecs.ApplySystem[scoreSystem, Score](storage, 3, Score(5))
	ecs.ApplySystem[scoreSystem, Score](storage, 3, Score(5))

	require.NotNil(t, ecs.Get[Score](storage, 3))
	assert.Equal(t, Score(20), *ecs.Get[Score](storage, 3))
}

func TestApplySystemAll(t *testing.T) {
	storage := ecs.NewStorage()
	for id := ecs.EntityId(1); id <= 4; id++ {
		ecs.Insert(storage, id, Health{Current: int(id), Max: 100})
	}
	ecs.Insert(storage, 10, Position{})

	applied := ecs.ApplySystemAll[healSystem, Health](storage, 10)

	assert.Equal(t, 4, applied)
	for id := ecs.EntityId(1); id <= 4; id++ {
		assert.Equal(t, int(id)+10, ecs.Get[Health](storage, id).Current)
	}
	assert.Equal(t, Position{}, *ecs.Get[Position](storage, 10))
}

func TestApplySystemAllEmpty(t *testing.T) {
	storage := ecs.NewStorage()
	assert.Equal(t, 0, ecs.ApplySystemAll[healSystem, Health](storage, 1))
}
