package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Up is the world up axis. Spins about Up are assigned absolutely; spins about
// any other axis are applied incrementally through an Accumulator.
var Up = mgl64.Vec3{0, 1, 0}

const axisEpsilon = 1e-9

// Spin is a body's rotation about its own axis.
type Spin struct {
	// Period is seconds per full turn.
	Period float64
	// Axis is the unit rotation axis. The zero vector means Up.
	Axis mgl64.Vec3
}

// TiltedAxis returns Up tipped by tilt radians towards +X, i.e. Up rotated by -tilt about Z.
func TiltedAxis(tilt float64) mgl64.Vec3 {
	return mgl64.Vec3{math.Sin(tilt), math.Cos(tilt), 0}.Normalize()
}

// Validate reports configuration errors.
func (s Spin) Validate() error {
	if err := checkPositive(ErrInvalidPeriod, "rotational period", s.Period); err != nil {
		return err
	}
	if s.Axis == (mgl64.Vec3{}) {
		return nil
	}
	for _, c := range s.Axis {
		if !finite(c) {
			return errors.Wrapf(ErrInvalidAxis, "axis = %v", s.Axis)
		}
	}
	if s.Axis.Len() < axisEpsilon {
		return errors.Wrapf(ErrInvalidAxis, "axis = %v", s.Axis)
	}
	return nil
}

// UnitAxis returns the normalised rotation axis.
func (s Spin) UnitAxis() mgl64.Vec3 {
	if s.Axis == (mgl64.Vec3{}) {
		return Up
	}
	return s.Axis.Normalize()
}

// Upright reports whether the spin axis is the world up axis.
func (s Spin) Upright() bool {
	return s.UnitAxis().ApproxEqualThreshold(Up, axisEpsilon)
}

// Angle returns the absolute, unwrapped spin angle at scaled time t.
func (s Spin) Angle(t float64) float64 {
	return AngularVelocity(s.Period) * t
}

// Orient returns the orientation at scaled time t.
//
// Upright spins ignore the previous orientation and assign the absolute angle.
// Other spins advance acc and rotate the previous orientation by the increment
// about the body's own axis.
func (s Spin) Orient(orientation mgl64.Quat, acc *Accumulator, t float64) mgl64.Quat {
	angle := s.Angle(t)
	if s.Upright() {
		return mgl64.QuatRotate(angle, Up)
	}

	delta := acc.Advance(angle)
	return orientation.Mul(mgl64.QuatRotate(delta, s.UnitAxis())).Normalize()
}
