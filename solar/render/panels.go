package render

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/ecs/debugui"
	"github.com/plus3/orrery/kinematics"
	"github.com/plus3/orrery/solar"
)

const (
	minSliderScale = 0.1
	maxSliderScale = 100
)

// TimeScalePanel returns a render function for a window with a logarithmic
// time-scale slider bound to settings. The slider follows changes made elsewhere,
// such as over HTTP.
func TimeScalePanel(settings *solar.Settings) func() {
	var lastErr error

	return func() {
		imgui.SetNextWindowPosV(imgui.NewVec2(10, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
		imgui.SetNextWindowSizeV(imgui.NewVec2(320, 90), imgui.CondOnce)
		if !imgui.BeginV("Time", nil, imgui.WindowFlagsNone) {
			imgui.End()
			return
		}
		defer imgui.End()

		value := float32(settings.TimeScale())
		if imgui.SliderFloatV("scale", &value, minSliderScale, maxSliderScale, "%.2fx", imgui.SliderFlagsLogarithmic) {
			lastErr = settings.SetTimeScale(float64(value))
		}
		imgui.Text(fmt.Sprintf("%.3f simulated seconds per second", settings.TimeScale()))
		if lastErr != nil {
			imgui.Text(lastErr.Error())
		}
	}
}

// BodyInspectorPanel returns a render function listing every body's position
// and spin angle, read from a fresh snapshot of storage.
func BodyInspectorPanel(storage *ecs.Storage) func() {
	return func() {
		imgui.SetNextWindowPosV(imgui.NewVec2(10, 110), imgui.CondOnce, imgui.NewVec2(0, 0))
		imgui.SetNextWindowSizeV(imgui.NewVec2(520, 300), imgui.CondOnce)
		if !imgui.BeginV("Bodies", nil, imgui.WindowFlagsNone) {
			imgui.End()
			return
		}
		defer imgui.End()

		snap := solar.TakeSnapshot(storage)
		imgui.Text(fmt.Sprintf("Session %s", snap.Session))
		imgui.Text(fmt.Sprintf("Frame %d  elapsed %.2fs  scaled %.2fs", snap.Frame, snap.Elapsed, snap.Scaled))
		if snap.Fault != "" {
			imgui.Separator()
			imgui.Text("Fault: " + snap.Fault)
		}

		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("bodies", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Body")
			imgui.TableSetupColumn("Position")
			imgui.TableSetupColumn("Spin")
			imgui.TableSetupColumn("Turns")
			imgui.TableHeadersRow()

			for _, body := range snap.Bodies {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(body.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%.3f, %.3f, %.3f", body.Position.X(), body.Position.Y(), body.Position.Z()))
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%.1f°", mgl64.RadToDeg(body.SpinAngle)))
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%.2f", body.Unwrapped/kinematics.TwoPi))
			}
			imgui.EndTable()
		}
	}
}

// SpawnPanels adds the scene panels as ImguiItem entities.
func SpawnPanels(storage *ecs.Storage, scene *solar.Scene) {
	storage.Spawn(debugui.ImguiItem{Render: TimeScalePanel(scene.Session.Settings)})
	storage.Spawn(debugui.ImguiItem{Render: BodyInspectorPanel(storage)})
}
