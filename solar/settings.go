package solar

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/plus3/orrery/kinematics"
)

const (
	DefaultTimeScale = 1.0
	MaxTimeScale     = 1000.0
)

// ErrInvalidTimeScale is returned for scales that are not finite, not positive, or above MaxTimeScale.
var ErrInvalidTimeScale = kinematics.ErrInvalidScale

// Settings holds the values a user may change while the simulation runs.
// It is safe for concurrent use; the scheduler reads it once per frame.
type Settings struct {
	timeScale atomic.Uint64

	mu          sync.Mutex
	subscribers []func(old, new float64)
}

// NewSettings returns Settings with the given initial time scale.
func NewSettings(timeScale float64) (*Settings, error) {
	if err := validateTimeScale(timeScale); err != nil {
		return nil, err
	}
	s := &Settings{}
	s.timeScale.Store(math.Float64bits(timeScale))
	return s, nil
}

func validateTimeScale(v float64) error {
	if err := kinematics.ValidateScale(v); err != nil {
		return err
	}
	if v > MaxTimeScale {
		return errors.Wrapf(ErrInvalidTimeScale, "time scale %v exceeds %v", v, MaxTimeScale)
	}
	return nil
}

// TimeScale returns the current multiplier applied to elapsed time.
func (s *Settings) TimeScale() float64 {
	return math.Float64frombits(s.timeScale.Load())
}

// SetTimeScale validates and stores a new time scale. It takes effect on the next frame.
// Subscribers are called synchronously on the caller's goroutine.
func (s *Settings) SetTimeScale(v float64) error {
	if err := validateTimeScale(v); err != nil {
		return err
	}

	old := math.Float64frombits(s.timeScale.Swap(math.Float64bits(v)))
	if old == v {
		return nil
	}

	s.mu.Lock()
	subscribers := s.subscribers
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(old, v)
	}
	return nil
}

// Subscribe registers fn to be called after every change of the time scale.
func (s *Settings) Subscribe(fn func(old, new float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers[:len(s.subscribers):len(s.subscribers)], fn)
}
