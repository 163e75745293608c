package kinematics

import "github.com/pkg/errors"

// Clock tracks unscaled elapsed seconds since the simulation started.
type Clock struct {
	Elapsed float64
}

// Advance adds dt seconds. dt must be finite and non-negative.
func (c *Clock) Advance(dt float64) error {
	if !finite(dt) || dt < 0 {
		return errors.Wrapf(ErrInvalidTime, "delta = %v", dt)
	}
	c.Elapsed += dt
	return nil
}

// Set moves the clock to an absolute elapsed time, which may not go backwards.
func (c *Clock) Set(elapsed float64) error {
	if !finite(elapsed) || elapsed < 0 {
		return errors.Wrapf(ErrInvalidTime, "elapsed = %v", elapsed)
	}
	if elapsed < c.Elapsed {
		return errors.Wrapf(ErrInvalidTime, "elapsed %v is before %v", elapsed, c.Elapsed)
	}
	c.Elapsed = elapsed
	return nil
}

// Scaled returns the elapsed time multiplied by scale.
func (c Clock) Scaled(scale float64) float64 {
	return c.Elapsed * scale
}
