// Package render draws a solar scene into an ebiten image and provides the
// interactive pieces of the windowed host: camera controls and ImGui panels.
package render

import (
	"cmp"
	"image/color"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/solar"
)

const (
	ambient     = 0.18
	pathSamples = 128
)

// Screen is the image RenderSystem draws into. The host sets it in Draw.
type Screen struct {
	Image *ebiten.Image
}

type drawItem struct {
	x, y, r  float32
	depth    float64
	radius   float64
	base     color.NRGBA
	lit      color.NRGBA
	emissive bool

	hx, hy float32 // lit disc centre

	marker   bool
	mx, my   float32
	pole     bool
	px0, py0 float32
	px1, py1 float32
}

// RenderSystem projects every body through the scene camera and paints them
// back to front as shaded discs, with orbit paths and spin markers.
type RenderSystem struct {
	Camera ecs.Singleton[solar.Camera]
	Screen ecs.Singleton[Screen]

	Bodies ecs.Query[struct {
		ecs.EntityId
		*solar.Body
		*solar.Transform
		*solar.Appearance
		Spin  *solar.Spin  `ecs:"optional"`
		Orbit *solar.Orbit `ecs:"optional"`
	}]
	Lights ecs.Query[struct{ *solar.Light }]

	Background color.RGBA

	items []drawItem
	paths map[ecs.EntityId][]mgl64.Vec3
}

func (s *RenderSystem) Execute(frame *ecs.UpdateFrame) {
	screen := s.Screen.Get()
	cam := s.Camera.Get()
	if screen == nil || screen.Image == nil || cam == nil {
		return
	}
	dst := screen.Image

	bounds := dst.Bounds()
	cam.Width, cam.Height = bounds.Dx(), bounds.Dy()
	dst.Fill(s.Background)

	viewProj := cam.ViewProjection()
	view := cam.View()

	lightDir := mgl64.Vec3{1, 0, 0}
	for light := range s.Lights.Values() {
		if light.Position.Len() > 0 {
			lightDir = light.Position.Normalize()
		}
		break
	}
	lightView := view.Mul4x1(lightDir.Vec4(0)).Vec3()

	if s.paths == nil {
		s.paths = make(map[ecs.EntityId][]mgl64.Vec3)
	}

	items := s.items[:0]
	for body := range s.Bodies.Values() {
		if body.Orbit != nil {
			path, ok := s.paths[body.EntityId]
			if !ok {
				path = body.Orbit.Motion.Path(make([]mgl64.Vec3, pathSamples))
				s.paths[body.EntityId] = path
			}
			drawPath(dst, cam, viewProj, path)
		}

		p, ok := cam.Project(viewProj, body.Position)
		if !ok {
			continue
		}
		r := body.Radius * p.Scale

		item := drawItem{
			x:        float32(p.X),
			y:        float32(p.Y),
			r:        float32(r),
			depth:    p.Depth,
			radius:   body.Radius,
			base:     withOpacity(body.Color, body.Opacity),
			emissive: body.Emissive,
		}
		item.lit = item.base

		if !body.Emissive {
			toCamera := cam.Position.Sub(body.Position).Normalize()
			item.lit = shade(item.base, Phase(lightDir, toCamera))
			item.base = shade(item.base, ambient)
			item.hx = item.x + float32(lightView.X()*0.35*r)
			item.hy = item.y - float32(lightView.Y()*0.35*r)
		}

		if body.Spin != nil {
			orientation := body.Orientation.Mul(body.Spin.Frame())

			tip := body.Position.Add(orientation.Rotate(mgl64.Vec3{1, 0, 0}).Mul(body.Radius))
			if tp, ok := cam.Project(viewProj, tip); ok && tp.Depth < p.Depth {
				item.marker = true
				item.mx, item.my = float32(tp.X), float32(tp.Y)
			}

			axis := orientation.Rotate(mgl64.Vec3{0, 1, 0}).Mul(body.Radius * 1.3)
			p0, ok0 := cam.Project(viewProj, body.Position.Sub(axis))
			p1, ok1 := cam.Project(viewProj, body.Position.Add(axis))
			if ok0 && ok1 && !body.Spin.Motion.Upright() {
				item.pole = true
				item.px0, item.py0 = float32(p0.X), float32(p0.Y)
				item.px1, item.py1 = float32(p1.X), float32(p1.Y)
			}
		}

		items = append(items, item)
	}

	sortBackToFront(items)
	for i := range items {
		drawBody(dst, &items[i])
	}
	s.items = items
}

// sortBackToFront orders items far to near; at equal depth smaller bodies go
// first so enclosing shells such as clouds are painted over them.
func sortBackToFront(items []drawItem) {
	slices.SortStableFunc(items, func(a, b drawItem) int {
		if c := cmp.Compare(b.depth, a.depth); c != 0 {
			return c
		}
		return cmp.Compare(a.radius, b.radius)
	})
}

func drawPath(dst *ebiten.Image, cam *solar.Camera, viewProj mgl64.Mat4, path []mgl64.Vec3) {
	pathColor := color.NRGBA{R: 0x80, G: 0x80, B: 0x90, A: 0x60}
	prev, prevOK := cam.Project(viewProj, path[len(path)-1])
	for _, point := range path {
		p, ok := cam.Project(viewProj, point)
		if ok && prevOK {
			vector.StrokeLine(dst, float32(prev.X), float32(prev.Y), float32(p.X), float32(p.Y), 1, pathColor, true)
		}
		prev, prevOK = p, ok
	}
}

func drawBody(dst *ebiten.Image, item *drawItem) {
	if item.r < 0.5 {
		item.r = 0.5
	}
	vector.DrawFilledCircle(dst, item.x, item.y, item.r, item.base, true)
	if !item.emissive {
		vector.DrawFilledCircle(dst, item.hx, item.hy, item.r*0.65, item.lit, true)
	}
	if item.pole {
		vector.StrokeLine(dst, item.px0, item.py0, item.px1, item.py1, 1, color.NRGBA{R: 0xff, G: 0x60, B: 0x60, A: 0xc0}, true)
	}
	if item.marker {
		vector.StrokeLine(dst, item.x, item.y, item.mx, item.my, 1.5, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xa0}, true)
	}
}

// Phase returns how much of a sphere's visible face is lit, from ambient (light
// behind the sphere) to 1 (light behind the viewer). Both vectors must be unit length.
func Phase(toLight, toCamera mgl64.Vec3) float64 {
	return ambient + (1-ambient)*(1+toLight.Dot(toCamera))/2
}

func shade(c color.NRGBA, k float64) color.NRGBA {
	k = mgl64.Clamp(k, 0, 1)
	return color.NRGBA{
		R: uint8(math.Round(float64(c.R) * k)),
		G: uint8(math.Round(float64(c.G) * k)),
		B: uint8(math.Round(float64(c.B) * k)),
		A: c.A,
	}
}

func withOpacity(c color.RGBA, opacity float64) color.NRGBA {
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(255 * opacity))}
}
