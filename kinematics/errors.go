package kinematics

import (
	"math"

	"github.com/pkg/errors"
)

var (
	ErrInvalidPeriod = errors.New("period must be positive and finite")
	ErrInvalidRadius = errors.New("radius must be positive and finite")
	ErrInvalidScale  = errors.New("time scale must be positive and finite")
	ErrInvalidTime   = errors.New("elapsed time must be finite, non-negative and non-decreasing")
	ErrInvalidAxis   = errors.New("rotation axis must be a finite non-zero vector")
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkPositive(sentinel error, what string, v float64) error {
	if !finite(v) || v <= 0 {
		return errors.Wrapf(sentinel, "%s = %v", what, v)
	}
	return nil
}

// ValidateScale checks a time-scale multiplier.
func ValidateScale(scale float64) error {
	return checkPositive(ErrInvalidScale, "time scale", scale)
}
