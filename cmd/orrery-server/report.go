package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/kinematics"
	"github.com/plus3/orrery/solar"
)

// Report summarises a headless run.
type Report struct {
	Scene    string
	Duration time.Duration
	Interval time.Duration

	Snapshot      solar.Snapshot
	FrameInterval Stats
	MemStatsStart runtime.MemStats
	MemStatsEnd   runtime.MemStats
}

// Stats keeps the range and mean of a stream of durations.
type Stats struct {
	Count int64
	Min   time.Duration
	Max   time.Duration
	total time.Duration
}

func (s *Stats) Add(d time.Duration) {
	if s.Count == 0 || d < s.Min {
		s.Min = d
	}
	if d > s.Max {
		s.Max = d
	}
	s.total += d
	s.Count++
}

func (s Stats) Avg() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.total / time.Duration(s.Count)
}

// frameSampler records the wall time between scheduler frames.
type frameSampler struct {
	stats *Stats
}

func (f *frameSampler) Execute(frame *ecs.UpdateFrame) {
	f.stats.Add(time.Duration(frame.DeltaTime * float64(time.Second)))
}

const reportTemplate = `
# Orrery Run Report

## Session
- **Session:** {{.Snapshot.Session}}
- **Scene:** {{.Scene}}
- **Wall Time:** {{.Duration}}
- **Tick Interval:** {{.Interval}}
{{- if .Snapshot.Fault}}
- **Fault:** {{.Snapshot.Fault}}
{{- end}}

## Clock
- **Frames:** {{.Snapshot.Frame}}
- **Elapsed:** {{seconds .Snapshot.Elapsed}}
- **Scaled:** {{seconds .Snapshot.Scaled}} at {{printf "%.2f" .Snapshot.TimeScale}}x
- **Frame Interval:** avg {{.FrameInterval.Avg}}, min {{.FrameInterval.Min}}, max {{.FrameInterval.Max}}

## Bodies
| Body | Position | Spin | Turns |
|------|----------|------|-------|
{{- range .Snapshot.Bodies}}
| {{.Name}} | {{vec .Position}} | {{deg .SpinAngle}} | {{turns .Unwrapped}} |
{{- end}}

## Lights
{{- range .Snapshot.Lights}}
- {{.Name}} at {{vec .Position}}{{if .Target}} tracking {{.Target}}{{end}}
{{- end}}

## Update Systems
| System | Runs | Avg | Max |
|--------|------|-----|-----|
{{- range .Snapshot.Systems}}
| {{.Name}} | {{.Executions}} | {{.Avg}} | {{.Max}} |
{{- end}}

## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
`

var reportFuncs = template.FuncMap{
	"bsub": func(a, b uint64) int64 {
		return int64(a) - int64(b)
	},
	"usub": func(a, b uint32) uint32 {
		return a - b
	},
	"seconds": func(s float64) string {
		return fmt.Sprintf("%.2fs", s)
	},
	"vec": func(v mgl64.Vec3) string {
		return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X(), v.Y(), v.Z())
	},
	"deg": func(rad float64) string {
		return fmt.Sprintf("%.1f°", mgl64.RadToDeg(rad))
	},
	"turns": func(rad float64) string {
		return fmt.Sprintf("%.2f", rad/kinematics.TwoPi)
	},
}

var reportTmpl = template.Must(template.New("report").Funcs(reportFuncs).Parse(reportTemplate))

func (r *Report) Generate(w io.Writer) error {
	return reportTmpl.Execute(w, r)
}
