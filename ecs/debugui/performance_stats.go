package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/AllenDang/cimgui-go/implot"
	"github.com/plus3/orrery/ecs"
)

// PerformanceStats is a window with a frame-time history, storage counts and,
// when Stats is set, per-system timings from the scheduler.
type PerformanceStats struct {
	Stats func() *ecs.SchedulerStats

	history []float32 // frame time in ms, ring buffer
	offset  int
	filled  int
	ordered []float32
}

// NewPerformanceStats keeps the last historyFrames frame times.
func NewPerformanceStats(historyFrames int, stats func() *ecs.SchedulerStats) PerformanceStats {
	historyFrames = max(historyFrames, 1)
	return PerformanceStats{
		Stats:   stats,
		history: make([]float32, historyFrames),
		ordered: make([]float32, historyFrames),
	}
}

// Record adds one frame of dt seconds to the history.
func (ps *PerformanceStats) Record(dt float64) {
	if len(ps.history) == 0 {
		return
	}
	ps.history[ps.offset] = float32(dt * 1000)
	ps.offset = (ps.offset + 1) % len(ps.history)
	ps.filled = min(ps.filled+1, len(ps.history))
}

// Samples returns the recorded frame times, oldest first. The slice is reused.
func (ps *PerformanceStats) Samples() []float32 {
	n := len(ps.history)
	if ps.filled < n {
		return ps.history[:ps.filled]
	}
	copy(ps.ordered, ps.history[ps.offset:])
	copy(ps.ordered[n-ps.offset:], ps.history[:ps.offset])
	return ps.ordered
}

// Average returns the mean frame time in milliseconds.
func (ps *PerformanceStats) Average() float32 {
	if ps.filled == 0 {
		return 0
	}
	var sum float32
	for _, ms := range ps.Samples() {
		sum += ms
	}
	return sum / float32(ps.filled)
}

// Render draws the window. It must be called inside an ImGui frame.
func (ps *PerformanceStats) Render(storage *ecs.Storage) {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 420), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(420, 300), imgui.CondOnce)
	if !imgui.BeginV("Performance", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	stats := storage.CollectStats()
	imgui.Text(fmt.Sprintf("Entities: %d  Archetypes: %d  Singletons: %d",
		stats.TotalEntityCount, stats.ArchetypeCount, stats.SingletonCount))

	avg := ps.Average()
	if avg > 0 {
		imgui.Text(fmt.Sprintf("Frame: %.2f ms (%.0f FPS)", avg, 1000/avg))
	}

	if samples := ps.Samples(); len(samples) > 0 {
		if implot.BeginPlotV("##frametime", imgui.NewVec2(-1, 120), 0) {
			implot.SetupAxesV("Frame", "ms", 0, implot.AxisFlagsAutoFit)
			implot.PlotLineFloatPtrInt("frame", &samples[0], int32(len(samples)))
			implot.EndPlot()
		}
	}

	if ps.Stats == nil {
		return
	}
	sched := ps.Stats()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if imgui.BeginTableV("systems", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("System")
		imgui.TableSetupColumn("Last")
		imgui.TableSetupColumn("Avg")
		imgui.TableSetupColumn("Max")
		imgui.TableHeadersRow()

		for _, sys := range sched.Systems {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			imgui.Text(sys.Name)
			imgui.TableNextColumn()
			imgui.Text(formatDuration(sys.LastDuration))
			imgui.TableNextColumn()
			imgui.Text(formatDuration(sys.AvgDuration))
			imgui.TableNextColumn()
			imgui.Text(formatDuration(sys.MaxDuration))
		}
		imgui.EndTable()
	}
	imgui.Text(fmt.Sprintf("Frames: %d", sched.Frames))
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d.Microseconds())/1000)
}

// PerformanceStatsSystem records the frame time into every PerformanceStats entity.
type PerformanceStatsSystem struct {
	Panels ecs.Query[struct{ *PerformanceStats }]
}

func (s *PerformanceStatsSystem) Execute(frame *ecs.UpdateFrame) {
	for panel := range s.Panels.Values() {
		panel.Record(frame.DeltaTime)
	}
}

// SpawnPerformanceStats adds a PerformanceStats entity and an ImguiItem that renders it.
func SpawnPerformanceStats(storage *ecs.Storage, historyFrames int, stats func() *ecs.SchedulerStats) ecs.EntityId {
	id := storage.Spawn(NewPerformanceStats(historyFrames, stats))
	ps := ecs.ReadComponent[PerformanceStats](storage, id)
	storage.Spawn(ImguiItem{Render: func() { ps.Render(storage) }})
	return id
}

// FrameTimer measures wall-clock time between calls to Delta.
type FrameTimer struct {
	last time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{last: time.Now()}
}

// Delta returns the seconds since the previous call, or since NewFrameTimer.
func (ft *FrameTimer) Delta() float64 {
	now := time.Now()
	delta := now.Sub(ft.last).Seconds()
	ft.last = now
	return delta
}
