package main

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/plus3/ooftn-store/ecs"
	"github.com/plus3/ooftn-store/ecs/motion"
)

// Heat is a scalar that decays toward zero.
type Heat struct {
	Value float64
}

// coolingSystem halves Heat every second.
type coolingSystem struct{}

func (coolingSystem) Apply(heat *Heat, dt float64) {
	heat.Value -= heat.Value * 0.5 * dt
}

const velocityDamping = 0.999

// world drives one stress workload. Every frame runs one pool task per
// component type so stores are exercised concurrently but each store is
// only ever written by a single task.
type world struct {
	storage    *ecs.Storage
	positions  *ecs.ComponentStore[motion.Position]
	velocities *ecs.ComponentStore[motion.Velocity]
	heat       *ecs.ComponentStore[Heat]
	commands   *ecs.Commands

	rng    *rand.Rand
	churn  float64
	nextId ecs.EntityId
}

func newWorld(storage *ecs.Storage, entities int, churn float64, seed int64) *world {
	w := &world{
		storage:    storage,
		positions:  ecs.StoreOf[motion.Position](storage),
		velocities: ecs.StoreOf[motion.Velocity](storage),
		heat:       ecs.StoreOf[Heat](storage),
		commands:   ecs.NewCommands(),
		rng:        rand.New(rand.NewSource(seed)),
		churn:      churn,
	}

	for i := 0; i < entities; i++ {
		w.spawn()
	}
	return w
}

// spawn gives a fresh entity a Position and, at random, Velocity and Heat.
func (w *world) spawn() ecs.EntityId {
	id := w.nextId
	w.nextId++

	w.positions.Insert(id, motion.Position{X: w.rng.Float64() * 100, Y: w.rng.Float64() * 100})
	if w.rng.Intn(2) == 0 {
		w.velocities.Insert(id, motion.Velocity{DX: w.rng.NormFloat64(), DY: w.rng.NormFloat64()})
	}
	if w.rng.Intn(3) == 0 {
		w.heat.Insert(id, Heat{Value: w.rng.Float64() * 1000})
	}
	return id
}

// frame advances the workload by dt seconds and returns how many Heat
// components were churned.
func (w *world) frame(pool *ants.Pool, dt float64) (int, error) {
	var churned int
	tasks := []func(){
		func() {
			ecs.ApplySystemAll[motion.GravitySystem, motion.Position](w.storage, dt)
		},
		func() {
			ecs.ApplySystemAll[motion.DampingSystem, motion.Velocity](w.storage, velocityDamping)
		},
		func() {
			ecs.ApplySystemAll[coolingSystem, Heat](w.storage, dt)
			churned = w.queueChurn()
		},
	}

	var wg sync.WaitGroup
	var submitErr error
	for _, task := range tasks {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			task()
		}); err != nil {
			wg.Done()
			submitErr = fmt.Errorf("submit frame task: %w", err)
			break
		}
	}
	wg.Wait()
	if submitErr != nil {
		return 0, submitErr
	}

	// Velocity integration reads one store and writes another, so it runs
	// after the per-type tasks have finished.
	for id, vel := range w.velocities.All() {
		ecs.ApplySystem[motion.VelocitySystem, motion.Position](w.storage, id, motion.Step{Velocity: *vel, DT: dt})
	}

	w.commands.Flush(w.storage)
	return churned, nil
}

// queueChurn picks Heat components to drop and hands the same number to new
// entities, keeping the Heat population constant.
func (w *world) queueChurn() int {
	if w.churn == 0 {
		return 0
	}

	churned := 0
	for id := range w.heat.EntityIds() {
		if w.rng.Float64() >= w.churn {
			continue
		}
		ecs.QueueRemove[Heat](w.commands, id)

		newId := w.nextId
		w.nextId++
		ecs.QueueInsert(w.commands, newId, motion.Position{})
		ecs.QueueInsert(w.commands, newId, Heat{Value: w.rng.Float64() * 1000})
		churned++
	}
	return churned
}
