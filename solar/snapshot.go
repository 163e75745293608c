package solar

import (
	"slices"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/plus3/orrery/ecs"
)

// Snapshot is a copy of the scene state between two frames.
type Snapshot struct {
	Session   string         `json:"session"`
	Frame     int64          `json:"frame"`
	Elapsed   float64        `json:"elapsed"`
	Scaled    float64        `json:"scaled"`
	TimeScale float64        `json:"timeScale"`
	Fault     string         `json:"fault,omitempty"`
	Bodies    []BodyState    `json:"bodies"`
	Lights    []LightState   `json:"lights"`
	Systems   []SystemTiming `json:"systems,omitempty"`
}

type BodyState struct {
	Name        string     `json:"name"`
	Radius      float64    `json:"radius"`
	Position    mgl64.Vec3 `json:"position"`
	Orientation [4]float64 `json:"orientation"` // x, y, z, w
	Tilt        float64    `json:"tilt"`
	SpinAngle   float64    `json:"spinAngle"`
	Unwrapped   float64    `json:"unwrapped"`
}

type LightState struct {
	Name     string     `json:"name"`
	Position mgl64.Vec3 `json:"position"`
	Target   string     `json:"target,omitempty"`
}

// SystemTiming is a per-system excerpt of ecs.SchedulerStats.
type SystemTiming struct {
	Name       string        `json:"name"`
	Executions int64         `json:"executions"`
	Last       time.Duration `json:"lastNs"`
	Avg        time.Duration `json:"avgNs"`
	Max        time.Duration `json:"maxNs"`
}

// Body returns the named body's state.
func (s Snapshot) Body(name string) (BodyState, bool) {
	for _, b := range s.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return BodyState{}, false
}

// Light returns the named light's state.
func (s Snapshot) Light(name string) (LightState, bool) {
	for _, l := range s.Lights {
		if l.Name == name {
			return l, true
		}
	}
	return LightState{}, false
}

type snapshotBody struct {
	*Body
	*Transform
	Spin *Spin `ecs:"optional"`
}

// TakeSnapshot copies the current state out of storage. Bodies and lights are
// sorted by name. It must not run concurrently with the scheduler.
func TakeSnapshot(storage *ecs.Storage) Snapshot {
	var snap Snapshot

	var clock *Clock
	if storage.ReadSingleton(&clock) {
		snap.Frame = clock.Frames
		snap.Elapsed = clock.Time.Elapsed
		snap.Scaled = clock.Scaled
		snap.TimeScale = clock.Scale
	}
	var session *Session
	if storage.ReadSingleton(&session) {
		snap.Session = session.ID.String()
	}
	var fault *Fault
	if storage.ReadSingleton(&fault) && fault.Err != nil {
		snap.Fault = fault.Err.Error()
	}

	names := make(map[ecs.EntityId]string)
	for id, b := range ecs.NewView[snapshotBody](storage).Iter() {
		state := BodyState{
			Name:        b.Name,
			Radius:      b.Radius,
			Position:    b.Position,
			Orientation: [4]float64{b.Orientation.X(), b.Orientation.Y(), b.Orientation.Z(), b.Orientation.W},
		}
		if b.Spin != nil {
			state.Tilt = b.Spin.Tilt
			state.SpinAngle = b.Spin.Angle
			state.Unwrapped = b.Spin.Accumulator.Unwrapped()
			if b.Spin.Motion.Upright() {
				state.Unwrapped = b.Spin.Motion.Angle(snap.Scaled)
			}
		}
		names[id] = b.Name
		snap.Bodies = append(snap.Bodies, state)
	}

	for light := range ecs.NewView[struct{ *Light }](storage).Values() {
		state := LightState{Name: light.Name, Position: light.Position}
		if id, ok := storage.ResolveEntityRef(light.Target); ok {
			state.Target = names[id]
		}
		snap.Lights = append(snap.Lights, state)
	}

	slices.SortFunc(snap.Bodies, func(a, b BodyState) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(snap.Lights, func(a, b LightState) int { return strings.Compare(a.Name, b.Name) })
	return snap
}

// Sink receives snapshots from PublishSystem on the scheduler goroutine.
// Implementations must not block.
type Sink interface {
	Publish(Snapshot)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Snapshot)

func (f SinkFunc) Publish(s Snapshot) { f(s) }

// PublishSystem takes a snapshot every Every frames and hands it to each sink.
// Register it after the motion systems.
type PublishSystem struct {
	Sinks []Sink
	Every int64
	// Stats, when set, adds per-system timings to each snapshot.
	Stats func() *ecs.SchedulerStats

	frames int64
}

func (p *PublishSystem) Execute(frame *ecs.UpdateFrame) {
	p.frames++
	if len(p.Sinks) == 0 || (p.Every > 1 && p.frames%p.Every != 1) {
		return
	}

	snap := TakeSnapshot(frame.Storage)
	if p.Stats != nil {
		snap.Systems = Timings(p.Stats())
	}
	for _, sink := range p.Sinks {
		sink.Publish(snap)
	}
}

// Timings converts scheduler statistics to snapshot form.
func Timings(stats *ecs.SchedulerStats) []SystemTiming {
	if stats == nil {
		return nil
	}
	out := make([]SystemTiming, len(stats.Systems))
	for i, s := range stats.Systems {
		out[i] = SystemTiming{
			Name:       s.Name,
			Executions: s.ExecutionCount,
			Last:       s.LastDuration,
			Avg:        s.AvgDuration,
			Max:        s.MaxDuration,
		}
	}
	return out
}
