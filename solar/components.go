package solar

import (
	"image/color"
	"reflect"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/kinematics"
)

// Body identifies a celestial body. Radius is in scene units.
type Body struct {
	Name   string
	Radius float64
}

// Transform is the placement of a body in the scene.
type Transform struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// Spin is a body's axial rotation and the state needed to apply it incrementally.
type Spin struct {
	Motion kinematics.Spin
	// Tilt is the axial tilt in radians baked into the body's shape, about -Z.
	Tilt        float64
	Accumulator kinematics.Accumulator
	// Angle is the current wrapped spin angle.
	Angle float64
}

// Frame returns the tilt applied to the body's shape before its orientation.
func (s *Spin) Frame() mgl64.Quat {
	return mgl64.QuatRotate(-s.Tilt, mgl64.Vec3{0, 0, 1})
}

// Orbit moves a body around the origin.
type Orbit struct {
	Motion kinematics.Orbit
	// Inclination in radians, kept for display. Motion.Displacement is derived from it.
	Inclination float64
}

// Appearance is the declarative material of a body. Only Color and Emissive
// affect the built-in renderer; the rest is passed through to external renderers.
type Appearance struct {
	Color         color.RGBA
	Emissive      bool
	CastShadow    bool
	ReceiveShadow bool
	Opacity       float64
	Texture       string
	NormalMap     string
	Segments      int
}

// Shadow is a light's shadow-map configuration.
type Shadow struct {
	Radius  float64
	MapSize int
}

// Light is a directional light aimed at the origin.
type Light struct {
	Name      string
	Position  mgl64.Vec3
	Intensity float64
	Color     color.RGBA
	Shadow    *Shadow
	// Target, when set, is the body whose x and z the light follows.
	Target *ecs.EntityRef
}

// Clock is the simulation clock singleton.
type Clock struct {
	Time kinematics.Clock
	// Scale is the time scale sampled at the start of the current frame.
	Scale float64
	// Scaled is Time.Elapsed * Scale, the time every motion is computed from.
	Scaled float64
	Frames int64
}

// Fault is set by the first system that meets invalid input. Once set, motion stops
// updating and hosts are expected to shut down.
type Fault struct {
	Err   error
	Frame int64
}

// Session identifies one running simulation and carries its settings.
type Session struct {
	ID       uuid.UUID
	Settings *Settings
}

// RegisterComponents registers every component type used by the scene.
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Body](registry)
	ecs.RegisterComponent[Transform](registry)
	ecs.RegisterComponent[Spin](registry)
	ecs.RegisterComponent[Orbit](registry)
	ecs.RegisterComponent[Appearance](registry)
	ecs.RegisterComponent[Light](registry)
}

var componentTypes = []reflect.Type{
	reflect.TypeFor[Body](),
	reflect.TypeFor[Transform](),
	reflect.TypeFor[Spin](),
	reflect.TypeFor[Orbit](),
	reflect.TypeFor[Appearance](),
	reflect.TypeFor[Light](),
}

// checkRegistered fails with ErrUnregistered for the first component type
// missing from the storage's registry.
func checkRegistered(storage *ecs.Storage) error {
	registry := storage.Registry()
	for _, t := range componentTypes {
		if !registry.Registered(t) {
			return errors.Wrapf(ErrUnregistered, "%s", t)
		}
	}
	return nil
}
