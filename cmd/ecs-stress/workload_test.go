package main

import (
	"bytes"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/panjf2000/ants/v2"
	"github.com/plus3/ooftn-store/ecs"
	"github.com/plus3/ooftn-store/ecs/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) *ants.Pool {
	pool, err := ants.NewPool(2)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

func TestNewWorldPopulates(t *testing.T) {
	storage := ecs.NewStorage()
	w := newWorld(storage, 300, 0, 7)

	assert.Equal(t, 300, ecs.Count[motion.Position](storage))
	assert.Greater(t, ecs.Count[motion.Velocity](storage), 0)
	assert.Greater(t, ecs.Count[Heat](storage), 0)
	assert.Equal(t, ecs.EntityId(300), w.nextId)
}

func TestFrameWithoutChurn(t *testing.T) {
	storage := ecs.NewStorage()
	w := newWorld(storage, 200, 0, 7)
	heatBefore := ecs.Count[Heat](storage)

	var id ecs.EntityId
	for candidate := range w.heat.EntityIds() {
		id = candidate
		break
	}
	before := ecs.Get[Heat](storage, id).Value

	churned, err := w.frame(newTestPool(t), 1.0)
	require.NoError(t, err)

	assert.Equal(t, 0, churned)
	assert.Equal(t, heatBefore, ecs.Count[Heat](storage))
	assert.Equal(t, 200, ecs.Count[motion.Position](storage))
	assert.InDelta(t, before*0.5, ecs.Get[Heat](storage, id).Value, 1e-9)
}

func TestFrameGravityAndVelocity(t *testing.T) {
	storage := ecs.NewStorage()
	w := newWorld(storage, 0, 0, 7)

	ecs.Insert(storage, 1000, motion.Position{X: 0, Y: 0})
	ecs.Insert(storage, 1000, motion.Velocity{DX: 2, DY: 0})

	_, err := w.frame(newTestPool(t), 0.5)
	require.NoError(t, err)

	pos := ecs.Get[motion.Position](storage, 1000)
	require.NotNil(t, pos)
	assert.InDelta(t, 2*velocityDamping*0.5, pos.X, 1e-9)
	assert.InDelta(t, -motion.Gravity*0.5, pos.Y, 1e-9)
}

func TestFrameChurnKeepsHeatPopulation(t *testing.T) {
	storage := ecs.NewStorage()
	w := newWorld(storage, 300, 0.5, 7)
	heatBefore := ecs.Count[Heat](storage)

	churned, err := w.frame(newTestPool(t), 0.016)
	require.NoError(t, err)

	assert.Greater(t, churned, 0)
	assert.Equal(t, heatBefore, ecs.Count[Heat](storage))
	assert.Equal(t, 300+churned, ecs.Count[motion.Position](storage))
}

func TestFrameClosedPool(t *testing.T) {
	storage := ecs.NewStorage()
	w := newWorld(storage, 10, 0, 7)

	pool, err := ants.NewPool(1)
	require.NoError(t, err)
	pool.Release()

	_, err = w.frame(pool, 0.016)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	cfg := &Config{
		Duration: 50 * time.Millisecond,
		Entities: 100,
		Workers:  2,
		Churn:    0.1,
		Seed:     1,
		Format:   "json",
	}

	var buf bytes.Buffer
	require.NoError(t, run(cfg, &buf))

	var decoded struct {
		Entities     int   `json:"entities"`
		TotalUpdates int64 `json:"total_updates"`
	}
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 100, decoded.Entities)
	assert.Greater(t, decoded.TotalUpdates, int64(0))
}
