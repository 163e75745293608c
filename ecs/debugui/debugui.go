// Package debugui renders Dear ImGui windows from ECS entities.
//
// Any entity carrying an ImguiItem is drawn once per frame by ImguiSystem. The
// render functions are deferred to the end of the frame, so the host must call
// Scheduler.Once between the backend's BeginFrame and EndFrame.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/orrery/ecs"
)

// ImguiItem holds a function that issues ImGui calls.
type ImguiItem struct {
	Render func()
}

// ImguiInputState mirrors whether ImGui wants the mouse or keyboard this frame.
// Systems that read input should back off while either flag is set.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem updates ImguiInputState and queues every ImguiItem for rendering.
type ImguiSystem struct {
	Items      ecs.Query[struct{ *ImguiItem }]
	InputState ecs.Singleton[ImguiInputState]
}

func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) {
	io := imgui.CurrentIO()
	state := i.InputState.Get()
	if state == nil {
		frame.Storage.AddSingleton(ImguiInputState{})
		state = i.InputState.Get()
	}
	state.WantCaptureMouse = io.WantCaptureMouse()
	state.WantCaptureKeyboard = io.WantCaptureKeyboard()

	for item := range i.Items.Values() {
		if item.Render != nil {
			frame.Commands.Defer(item.Render)
		}
	}
}

// RegisterComponents registers the component types owned by this package.
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[ImguiItem](registry)
	ecs.RegisterComponent[PerformanceStats](registry)
}
