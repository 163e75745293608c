package kinematics_test

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/plus3/orrery/kinematics"
)

func ExampleOrbit_Position() {
	moon := kinematics.Orbit{Period: 10, Radius: 2.5, Displacement: 0.5}

	for _, t := range []float64{1.25, 2.5, 3.75} {
		p := moon.Position(t)
		fmt.Printf("t=%.2f (%.2f, %.2f, %.2f)\n", t, p.X(), p.Y(), p.Z())
	}
	// Output:
	// t=1.25 (1.77, -0.35, -1.77)
	// t=2.50 (0.00, -0.50, -2.50)
	// t=3.75 (-1.77, -0.35, -1.77)
}

func ExampleAccumulator() {
	earth := kinematics.Spin{Period: 4, Axis: kinematics.TiltedAxis(mgl64.DegToRad(23.4))}

	var acc kinematics.Accumulator
	for _, t := range []float64{1, 2, 3, 4, 5} {
		delta := acc.Advance(earth.Angle(t))
		fmt.Printf("t=%.0f delta=%+.3f unwrapped=%.3f\n", t, delta, acc.Unwrapped())
	}
	// Output:
	// t=1 delta=+1.571 unwrapped=1.571
	// t=2 delta=+1.571 unwrapped=3.142
	// t=3 delta=+1.571 unwrapped=4.712
	// t=4 delta=-4.712 unwrapped=6.283
	// t=5 delta=+1.571 unwrapped=7.854
}
