package render

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/ecs/debugui"
	"github.com/plus3/orrery/solar"
)

const (
	keyRotateSpeed  = 0.002 // radians of velocity added per frame a key is held
	dragRotateSpeed = 0.0005
	wheelZoomFactor = 0.9
	keyZoomPerFrame = 0.99
)

// CameraControlSystem turns keyboard and mouse input into camera motion.
// Arrow keys and left-drag orbit the target, the wheel and +/- zoom. Input is
// ignored while ImGui wants it.
type CameraControlSystem struct {
	Camera ecs.Singleton[solar.Camera]
	Input  ecs.Singleton[debugui.ImguiInputState]

	dragging     bool
	lastX, lastY int
}

func (s *CameraControlSystem) Execute(frame *ecs.UpdateFrame) {
	cam := s.Camera.Get()
	if cam == nil {
		return
	}

	var wantMouse, wantKeyboard bool
	if input := s.Input.Get(); input != nil {
		wantMouse, wantKeyboard = input.WantCaptureMouse, input.WantCaptureKeyboard
	}

	if !wantKeyboard {
		s.keyboard(cam)
	}
	if wantMouse {
		s.dragging = false
	} else {
		s.mouse(cam)
	}

	cam.Update()
}

func (s *CameraControlSystem) keyboard(cam *solar.Camera) {
	var yaw, pitch float64
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		yaw -= keyRotateSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		yaw += keyRotateSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		pitch += keyRotateSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		pitch -= keyRotateSpeed
	}
	if yaw != 0 || pitch != 0 {
		cam.Rotate(yaw, pitch)
	}

	if ebiten.IsKeyPressed(ebiten.KeyEqual) || ebiten.IsKeyPressed(ebiten.KeyNumpadAdd) {
		cam.Zoom(keyZoomPerFrame)
	}
	if ebiten.IsKeyPressed(ebiten.KeyMinus) || ebiten.IsKeyPressed(ebiten.KeyNumpadSubtract) {
		cam.Zoom(1 / keyZoomPerFrame)
	}
}

func (s *CameraControlSystem) mouse(cam *solar.Camera) {
	x, y := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if s.dragging {
			cam.Rotate(-float64(x-s.lastX)*dragRotateSpeed, float64(y-s.lastY)*dragRotateSpeed)
		}
		s.dragging = true
		s.lastX, s.lastY = x, y
	} else {
		s.dragging = false
	}

	if _, wheel := ebiten.Wheel(); wheel != 0 {
		cam.Zoom(math.Pow(wheelZoomFactor, wheel))
	}
}
