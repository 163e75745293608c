package ecs_test

import (
	"fmt"

	"github.com/plus3/orrery/ecs"
)

type Elapsed struct {
	Seconds float64
}

type ElapsedSystem struct {
	Elapsed ecs.Singleton[Elapsed]
}

func (s *ElapsedSystem) Execute(frame *ecs.UpdateFrame) {
	s.Elapsed.Get().Seconds += frame.DeltaTime
}

type DriftSystem struct {
	Bodies ecs.Query[struct {
		*Label
		*Position
		*Velocity
	}]
}

func (s *DriftSystem) Execute(frame *ecs.UpdateFrame) {
	for body := range s.Bodies.Values() {
		body.Position.X += body.Velocity.DX * frame.DeltaTime
	}
}

// ExampleScheduler shows a frame loop: systems run in registration order and
// their Query and Singleton fields are wired by Register.
func ExampleScheduler() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Label](registry)
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	storage := ecs.NewStorage(registry)

	ecs.NewSingleton[Elapsed](storage)
	storage.Spawn(Label("pebble"), Position{}, Velocity{DX: 2})

	scheduler := ecs.NewScheduler(storage)
	scheduler.Register(&ElapsedSystem{})
	scheduler.Register(&DriftSystem{})

	for i := 0; i < 4; i++ {
		scheduler.Once(0.25)
	}

	var elapsed *Elapsed
	storage.ReadSingleton(&elapsed)
	fmt.Printf("elapsed: %.2fs\n", elapsed.Seconds)

	for body := range ecs.NewView[struct {
		*Label
		*Position
	}](storage).Values() {
		fmt.Printf("%s at x=%.1f\n", *body.Label, body.Position.X)
	}

	// Output:
	// elapsed: 1.00s
	// pebble at x=2.0
}
