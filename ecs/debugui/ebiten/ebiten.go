// Package ebiten connects debugui to an ebiten game loop through the cimgui-go
// ebiten backend.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/orrery/ecs"
)

// ImguiBackend is stored as a singleton so hosts and systems share one backend.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// NewImguiBackend creates the backend and its window. ImGui's ini file is disabled
// so window layout is not persisted between runs.
func NewImguiBackend(title string, width, height int) ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return ImguiBackend{EbitenBackend: backend}
}

// Frame runs one scheduler pass inside an ImGui frame, so deferred ImguiItem
// renders land in the right frame.
func (b ImguiBackend) Frame(scheduler *ecs.Scheduler, dt float64) {
	b.BeginFrame()
	scheduler.Once(dt)
	b.EndFrame()
}

// Overlay draws the ImGui output on top of screen.
func (b ImguiBackend) Overlay(screen *ebiten.Image) {
	b.Draw(screen)
}
