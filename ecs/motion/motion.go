// Package motion holds the stock 2D movement components and the systems that
// integrate them.
package motion

const (
	// Rate is the per-second drift MoveSystem applies to both axes.
	Rate = 1.0
	// Gravity is the downward acceleration GravitySystem applies, in units/s.
	Gravity = 9.81
)

// Position is an entity's location in 2D space.
type Position struct {
	X, Y float64
}

// Velocity is an entity's per-second displacement.
type Velocity struct {
	DX, DY float64
}

// MoveSystem drifts a Position by Rate*dt on each axis.
type MoveSystem struct{}

func (MoveSystem) Apply(position *Position, dt float64) {
	position.X += Rate * dt
	position.Y += Rate * dt
}

// GravitySystem pulls a Position down by Gravity*dt.
type GravitySystem struct{}

func (GravitySystem) Apply(position *Position, dt float64) {
	position.Y -= Gravity * dt
}

// Step carries the inputs of VelocitySystem.
type Step struct {
	Velocity Velocity
	DT       float64
}

// VelocitySystem moves a Position along a velocity for one step.
type VelocitySystem struct{}

func (VelocitySystem) Apply(position *Position, step Step) {
	position.X += step.Velocity.DX * step.DT
	position.Y += step.Velocity.DY * step.DT
}

// DampingSystem scales a Velocity by a per-step factor.
type DampingSystem struct{}

func (DampingSystem) Apply(velocity *Velocity, factor float64) {
	velocity.DX *= factor
	velocity.DY *= factor
}
