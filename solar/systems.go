package solar

import (
	"github.com/pkg/errors"
	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/kinematics"
)

// ClockSystem advances the simulation clock by the frame's delta time and samples
// the time scale. Invalid time is recorded in the Fault singleton instead of being
// propagated into the scene.
type ClockSystem struct {
	Clock   ecs.Singleton[Clock]
	Session ecs.Singleton[Session]
	Fault   ecs.Singleton[Fault]
}

func (s *ClockSystem) Execute(frame *ecs.UpdateFrame) {
	fault := s.Fault.Get()
	if fault.Err != nil {
		return
	}

	clock := s.Clock.Get()
	if err := clock.Time.Advance(frame.DeltaTime); err != nil {
		fault.Err = errors.Wrapf(err, "frame %d", clock.Frames)
		fault.Frame = clock.Frames
		return
	}

	if session := s.Session.Get(); session != nil && session.Settings != nil {
		clock.Scale = session.Settings.TimeScale()
	}
	clock.Scaled = clock.Time.Scaled(clock.Scale)
	clock.Frames++
}

// faulted reports whether motion should be skipped this frame.
func faulted(fault *ecs.Singleton[Fault]) bool {
	f := fault.Get()
	return f != nil && f.Err != nil
}

// SpinSystem orients bodies about their spin axis.
type SpinSystem struct {
	Clock ecs.Singleton[Clock]
	Fault ecs.Singleton[Fault]

	Bodies ecs.Query[struct {
		*Transform
		*Spin
	}]
}

func (s *SpinSystem) Execute(frame *ecs.UpdateFrame) {
	if faulted(&s.Fault) {
		return
	}

	t := s.Clock.Get().Scaled
	for body := range s.Bodies.Values() {
		spin := body.Spin
		body.Transform.Orientation = spin.Motion.Orient(body.Transform.Orientation, &spin.Accumulator, t)
		spin.Angle = kinematics.Wrap(spin.Motion.Angle(t))
	}
}

// OrbitSystem places bodies on their orbits.
type OrbitSystem struct {
	Clock ecs.Singleton[Clock]
	Fault ecs.Singleton[Fault]

	Bodies ecs.Query[struct {
		*Transform
		*Orbit
	}]
}

func (s *OrbitSystem) Execute(frame *ecs.UpdateFrame) {
	if faulted(&s.Fault) {
		return
	}

	t := s.Clock.Get().Scaled
	for body := range s.Bodies.Values() {
		body.Transform.Position = body.Orbit.Motion.Position(t)
	}
}

// LightTrackingSystem copies the x and z of each light's target onto the light.
// It must run after OrbitSystem so lights see this frame's positions.
type LightTrackingSystem struct {
	Fault  ecs.Singleton[Fault]
	Lights ecs.Query[struct{ *Light }]

	targets *ecs.View[struct{ *Transform }]
}

func (s *LightTrackingSystem) Execute(frame *ecs.UpdateFrame) {
	if faulted(&s.Fault) {
		return
	}
	if s.targets == nil {
		s.targets = ecs.NewView[struct{ *Transform }](frame.Storage)
	}

	for light := range s.Lights.Values() {
		if light.Target == nil {
			continue
		}
		target := s.targets.GetRef(light.Target)
		if target == nil {
			continue
		}
		light.Position[0] = target.Position[0]
		light.Position[2] = target.Position[2]
	}
}

// FaultSystem calls OnFault once, on the first frame a fault is recorded.
type FaultSystem struct {
	Fault   ecs.Singleton[Fault]
	OnFault func(error)

	reported bool
}

func (s *FaultSystem) Execute(frame *ecs.UpdateFrame) {
	if s.reported || !faulted(&s.Fault) {
		return
	}
	s.reported = true
	if s.OnFault != nil {
		s.OnFault(s.Fault.Get().Err)
	}
}
