package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Orbit is a circular path around the origin in the XZ plane.
// A non-zero Displacement lifts the path along Y with the same phase as Z,
// which tilts the circle into an ellipse-looking inclined orbit.
type Orbit struct {
	Period       float64
	Radius       float64
	Displacement float64
}

// DisplacementForInclination returns the Y amplitude that makes an orbit of the given
// radius appear inclined by inclination radians.
func DisplacementForInclination(inclination, radius float64) float64 {
	return math.Tan(inclination) * radius
}

// Validate reports configuration errors.
func (o Orbit) Validate() error {
	if err := checkPositive(ErrInvalidPeriod, "orbital period", o.Period); err != nil {
		return err
	}
	if err := checkPositive(ErrInvalidRadius, "orbital radius", o.Radius); err != nil {
		return err
	}
	if !finite(o.Displacement) {
		return errors.Wrapf(ErrInvalidRadius, "orbital displacement = %v", o.Displacement)
	}
	return nil
}

// Phase returns the orbit angle at scaled time t. It is negative for positive t,
// so bodies travel clockwise when viewed from +Y.
func (o Orbit) Phase(t float64) float64 {
	return -AngularVelocity(o.Period) * t
}

// Position returns the point on the orbit at scaled time t.
func (o Orbit) Position(t float64) mgl64.Vec3 {
	sin, cos := math.Sincos(o.Phase(t))
	return mgl64.Vec3{
		o.Radius * cos,
		o.Displacement * sin,
		o.Radius * sin,
	}
}

// Path fills dst with len(dst) points evenly spaced over one period, starting at t=0.
func (o Orbit) Path(dst []mgl64.Vec3) []mgl64.Vec3 {
	n := len(dst)
	for i := range dst {
		dst[i] = o.Position(o.Period * float64(i) / float64(n))
	}
	return dst
}
