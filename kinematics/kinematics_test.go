package kinematics_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/plus3/orrery/kinematics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func assertVecInDelta(t *testing.T, want, got mgl64.Vec3, delta float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, "component %d of %v vs %v", i, want, got)
	}
}

// sameRotation compares unit quaternions up to sign.
func sameRotation(a, b mgl64.Quat) bool {
	return 1-math.Abs(a.Dot(b)) < 1e-12
}

func TestWrap(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{kinematics.TwoPi, 0},
		{kinematics.TwoPi + 1, 1},
		{-1, kinematics.TwoPi - 1},
		{5 * kinematics.TwoPi, 0},
		{-1e-18, 0},
	}
	for _, tt := range tests {
		got := kinematics.Wrap(tt.in)
		assert.InDelta(t, tt.want, got, tolerance, "Wrap(%v)", tt.in)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.Less(t, got, kinematics.TwoPi)
	}
}

func TestAccumulatorWrapBoundary(t *testing.T) {
	var acc kinematics.Accumulator

	delta := acc.Advance(kinematics.TwoPi - 0.1)
	assert.InDelta(t, kinematics.TwoPi-0.1, delta, tolerance)

	// Crossing the boundary yields the momentary backward delta.
	delta = acc.Advance(kinematics.TwoPi + 0.1)
	assert.InDelta(t, 0.2-kinematics.TwoPi, delta, tolerance)
	assert.InDelta(t, 0.1, acc.Last, tolerance)
	assert.Equal(t, int64(1), acc.Turns)
	assert.InDelta(t, kinematics.TwoPi+0.1, acc.Unwrapped(), tolerance)

	acc.Reset()
	assert.Equal(t, kinematics.Accumulator{}, acc)
}

func TestAccumulatorLargeSteps(t *testing.T) {
	var acc kinematics.Accumulator

	// A first step of more than half a turn is still forward.
	delta := acc.Advance(kinematics.TwoPi - 0.1)
	assert.InDelta(t, kinematics.TwoPi-0.1, delta, tolerance)
	assert.Equal(t, int64(0), acc.Turns)
	assert.InDelta(t, kinematics.TwoPi-0.1, acc.Unwrapped(), tolerance)

	prev := acc.Unwrapped()
	for _, absolute := range []float64{9, 13, 21.5, 40, 40.25, 100} {
		acc.Advance(absolute)
		assert.InDelta(t, absolute, acc.Unwrapped(), tolerance)
		assert.Greater(t, acc.Unwrapped(), prev, "absolute=%v", absolute)
		prev = acc.Unwrapped()
	}
	assert.Equal(t, int64(15), acc.Turns)

	// The increment still lands on the wrapped angle.
	sum := 0.0
	acc.Reset()
	for _, absolute := range []float64{4, 8, 12.5, 30} {
		sum += acc.Advance(absolute)
	}
	assert.InDelta(t, kinematics.Wrap(30), kinematics.Wrap(sum), tolerance)
}

func TestSpinPeriodicity(t *testing.T) {
	const period = 120.0 / 28
	spin := kinematics.Spin{Period: period, Axis: kinematics.TiltedAxis(mgl64.DegToRad(23.4))}
	require.NoError(t, spin.Validate())

	for _, ticks := range []int{7, 60, 1000} {
		var acc kinematics.Accumulator
		sum := 0.0
		for i := 0; i <= ticks; i++ {
			sum += acc.Advance(spin.Angle(period * float64(i) / float64(ticks)))
		}
		rem := kinematics.Wrap(sum)
		assert.True(t, rem < 1e-9 || kinematics.TwoPi-rem < 1e-9, "ticks=%d sum=%v", ticks, sum)
	}
}

func TestSpinContinuity(t *testing.T) {
	const period = 3.0
	axis := kinematics.TiltedAxis(mgl64.DegToRad(23.4))
	spin := kinematics.Spin{Period: period, Axis: axis}

	var acc kinematics.Accumulator
	orientation := mgl64.QuatIdent()
	prev := 0.0

	for i := 1; i <= 600; i++ {
		tm := float64(i) / 60
		orientation = spin.Orient(orientation, &acc, tm)

		unwrapped := acc.Unwrapped()
		assert.Greater(t, unwrapped, prev, "unwrapped angle must keep increasing at t=%v", tm)
		assert.InDelta(t, spin.Angle(tm), unwrapped, 1e-9)
		prev = unwrapped

		want := mgl64.QuatRotate(kinematics.Wrap(spin.Angle(tm)), axis)
		assert.True(t, sameRotation(want, orientation), "orientation drifted at t=%v", tm)
	}

	// The tilted axis itself never moves.
	assertVecInDelta(t, axis, orientation.Rotate(axis), 1e-9)
}

func TestUprightSpinAssignsAbsoluteAngle(t *testing.T) {
	spin := kinematics.Spin{Period: 30}
	assert.True(t, spin.Upright())

	var acc kinematics.Accumulator
	got := spin.Orient(mgl64.QuatRotate(1, kinematics.Up), &acc, 7.5)

	assert.True(t, sameRotation(mgl64.QuatRotate(math.Pi/2, kinematics.Up), got))
	assert.Equal(t, kinematics.Accumulator{}, acc, "upright spins do not touch the accumulator")
}

func TestOrbitSampleScenario(t *testing.T) {
	orbit := kinematics.Orbit{Period: 10, Radius: 2.5 * 6357 * (1.0 / 6357)}
	require.NoError(t, orbit.Validate())

	assertVecInDelta(t, mgl64.Vec3{0, 0, -2.5}, orbit.Position(2.5), 1e-12)
	assertVecInDelta(t, mgl64.Vec3{2.5, 0, 0}, orbit.Position(0), 1e-12)
}

func TestOrbitClosure(t *testing.T) {
	orbit := kinematics.Orbit{Period: 120, Radius: 2.5}

	assertVecInDelta(t, orbit.Position(0), orbit.Position(orbit.Period), 1e-9)

	path := orbit.Path(make([]mgl64.Vec3, 256))
	for _, p := range path {
		assert.InDelta(t, orbit.Radius, math.Hypot(p.X(), p.Z()), 1e-9)
		assert.Zero(t, p.Y())
	}
}

func TestOrbitDirectionAndInclination(t *testing.T) {
	incl := mgl64.DegToRad(5)
	orbit := kinematics.Orbit{
		Period:       120,
		Radius:       2.5,
		Displacement: kinematics.DisplacementForInclination(incl, 2.5),
	}

	// A small step from t=0 moves towards -Z: clockwise seen from +Y.
	p := orbit.Position(1)
	assert.Less(t, p.Z(), 0.0)
	assert.Less(t, p.Y(), 0.0)

	quarter := orbit.Position(30)
	assert.InDelta(t, -math.Tan(incl)*2.5, quarter.Y(), 1e-12)
	assert.InDelta(t, incl, math.Atan2(-quarter.Y(), -quarter.Z()), 1e-12)
}

func TestTimeScaleLinearity(t *testing.T) {
	spin := kinematics.Spin{Period: 4.2857, Axis: kinematics.TiltedAxis(0.4)}
	orbit := kinematics.Orbit{Period: 120, Radius: 2.5, Displacement: 0.2}

	run := func(scale, seconds float64) (kinematics.Accumulator, mgl64.Quat, mgl64.Vec3) {
		var clock kinematics.Clock
		var acc kinematics.Accumulator
		q := mgl64.QuatIdent()
		const frames = 90
		for i := 0; i < frames; i++ {
			require.NoError(t, clock.Advance(seconds/frames))
			q = spin.Orient(q, &acc, clock.Scaled(scale))
		}
		return acc, q, orbit.Position(clock.Scaled(scale))
	}

	accA, qA, posA := run(2, 3)
	accB, qB, posB := run(1, 6)

	assert.InDelta(t, accB.Unwrapped(), accA.Unwrapped(), 1e-9)
	assert.True(t, sameRotation(qA, qB))
	assertVecInDelta(t, posB, posA, 1e-9)
}

func TestValidation(t *testing.T) {
	for _, period := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		err := kinematics.Spin{Period: period}.Validate()
		assert.True(t, errors.Is(err, kinematics.ErrInvalidPeriod), "spin period %v: %v", period, err)

		err = kinematics.Orbit{Period: period, Radius: 1}.Validate()
		assert.True(t, errors.Is(err, kinematics.ErrInvalidPeriod), "orbit period %v: %v", period, err)
	}

	err := kinematics.Orbit{Period: 1, Radius: 0}.Validate()
	assert.True(t, errors.Is(err, kinematics.ErrInvalidRadius))

	err = kinematics.Orbit{Period: 1, Radius: 1, Displacement: math.NaN()}.Validate()
	assert.True(t, errors.Is(err, kinematics.ErrInvalidRadius))

	err = kinematics.Spin{Period: 1, Axis: mgl64.Vec3{0, math.NaN(), 0}}.Validate()
	assert.True(t, errors.Is(err, kinematics.ErrInvalidAxis))

	err = kinematics.Spin{Period: 1, Axis: mgl64.Vec3{1e-12, 0, 0}}.Validate()
	assert.True(t, errors.Is(err, kinematics.ErrInvalidAxis))

	assert.NoError(t, kinematics.ValidateScale(0.5))
	assert.True(t, errors.Is(kinematics.ValidateScale(0), kinematics.ErrInvalidScale))
	assert.True(t, errors.Is(kinematics.ValidateScale(math.Inf(1)), kinematics.ErrInvalidScale))
}

func TestClockRejectsBadTime(t *testing.T) {
	var clock kinematics.Clock

	require.NoError(t, clock.Advance(0.5))
	require.NoError(t, clock.Set(2))
	assert.Equal(t, 2.0, clock.Elapsed)
	assert.Equal(t, 6.0, clock.Scaled(3))

	for _, bad := range []float64{math.NaN(), -0.1, math.Inf(1)} {
		assert.True(t, errors.Is(clock.Advance(bad), kinematics.ErrInvalidTime), "Advance(%v)", bad)
		assert.True(t, errors.Is(clock.Set(bad), kinematics.ErrInvalidTime), "Set(%v)", bad)
	}
	assert.True(t, errors.Is(clock.Set(1), kinematics.ErrInvalidTime), "clock must not go backwards")
	assert.Equal(t, 2.0, clock.Elapsed)
}
