package ecs_test

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

// Custom primitive types for testing non-struct components
type Score int32
type Tag string

type Inventory struct {
	Items []string
}

// Test systems
type moveSystem struct{}

func (moveSystem) Apply(position *Position, dt float32) {
	position.X += dt
	position.Y += dt
}

type healSystem struct{}

func (healSystem) Apply(health *Health, amount int) {
	health.Current = min(health.Current+amount, health.Max)
}

type scoreSystem struct{}

func (scoreSystem) Apply(score *Score, bonus Score) {
	*score += bonus
}
