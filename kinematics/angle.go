package kinematics

import "math"

const TwoPi = 2 * math.Pi

// AngularVelocity returns radians per second for a full turn every period seconds.
func AngularVelocity(period float64) float64 {
	return TwoPi / period
}

// Wrap reduces angle to [0, 2π).
func Wrap(angle float64) float64 {
	w := math.Mod(angle, TwoPi)
	if w < 0 {
		w += TwoPi
	}
	if w >= TwoPi {
		// math.Mod of a tiny negative value can round up to exactly 2π.
		w = 0
	}
	return w
}

// Accumulator turns an absolute spin angle into per-frame increments.
//
// Each call wraps the absolute angle into [0, 2π) and returns the difference to
// the previously applied wrapped angle. On the frame where the wrapped angle rolls
// over, the returned delta is close to -2π; as a rotation it is equivalent to the
// small forward step, so the rendered orientation stays continuous. Turns is the
// number of whole turns in the last absolute angle, so Unwrapped tracks the
// absolute angle however large a single step is.
type Accumulator struct {
	Last  float64
	Turns int64
}

// Advance applies the absolute angle and returns the increment to rotate by.
func (a *Accumulator) Advance(absolute float64) float64 {
	wrapped := Wrap(absolute)
	delta := wrapped - a.Last
	a.Turns = int64(math.Round((absolute - wrapped) / TwoPi))
	a.Last = wrapped
	return delta
}

// Unwrapped returns the total angle applied since the start, including whole turns.
func (a Accumulator) Unwrapped() float64 {
	return float64(a.Turns)*TwoPi + a.Last
}

// Reset returns the accumulator to its initial state.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}
