package ecs_test

import "github.com/plus3/orrery/ecs"

// Common test component types
type Position struct {
	X, Y, Z float64
}

type Velocity struct {
	DX, DY, DZ float64
}

type Label string

type Mass float64

type Spin struct {
	Period float64
	Angle  float64
}

type Marker struct{}

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Label](registry)
	ecs.RegisterComponent[Mass](registry)
	ecs.RegisterComponent[Spin](registry)
	ecs.RegisterComponent[Marker](registry)
	return registry
}
