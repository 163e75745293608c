package solar

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	minPitch = -math.Pi/2 + 0.01
	maxPitch = math.Pi/2 - 0.01

	// DefaultDamping matches the feel of a damped orbit control: 5% of the
	// remaining angular velocity is dropped every frame.
	DefaultDamping = 0.05
)

// Camera is a perspective camera orbiting Target. Yaw, Pitch and Distance are the
// source of truth; Position is derived from them by Update.
type Camera struct {
	Target   mgl64.Vec3
	Position mgl64.Vec3

	FOV  float64 // vertical, degrees
	Near float64
	Far  float64

	Width  int
	Height int

	Yaw      float64
	Pitch    float64
	Distance float64

	YawVelocity   float64
	PitchVelocity float64
	Damping       float64

	MinDistance float64
	MaxDistance float64
}

// NewCamera places a camera at position looking at target.
func NewCamera(position, target mgl64.Vec3, fov, near, far float64) Camera {
	c := Camera{
		Target:      target,
		FOV:         fov,
		Near:        near,
		Far:         far,
		Width:       1280,
		Height:      720,
		Damping:     DefaultDamping,
		MinDistance: near * 10,
		MaxDistance: far * 0.9,
	}

	offset := position.Sub(target)
	c.Distance = offset.Len()
	if c.Distance > 0 {
		c.Yaw = math.Atan2(offset.X(), offset.Z())
		c.Pitch = math.Asin(mgl64.Clamp(offset.Y()/c.Distance, -1, 1))
	}
	c.Update()
	return c
}

// Rotate adds angular velocity, in radians per frame.
func (c *Camera) Rotate(yaw, pitch float64) {
	c.YawVelocity += yaw
	c.PitchVelocity += pitch
}

// Zoom scales the distance to the target by factor, within the camera's limits.
func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	c.Distance = mgl64.Clamp(c.Distance*factor, c.MinDistance, c.MaxDistance)
}

// Update applies and damps the angular velocity and recomputes Position.
func (c *Camera) Update() {
	c.Yaw += c.YawVelocity
	c.Pitch = mgl64.Clamp(c.Pitch+c.PitchVelocity, minPitch, maxPitch)

	c.YawVelocity *= 1 - c.Damping
	c.PitchVelocity *= 1 - c.Damping

	sinYaw, cosYaw := math.Sincos(c.Yaw)
	sinPitch, cosPitch := math.Sincos(c.Pitch)
	c.Position = c.Target.Add(mgl64.Vec3{
		cosPitch * sinYaw,
		sinPitch,
		cosPitch * cosYaw,
	}.Mul(c.Distance))
}

// Aspect returns width over height, or 1 before the first layout.
func (c *Camera) Aspect() float64 {
	if c.Width <= 0 || c.Height <= 0 {
		return 1
	}
	return float64(c.Width) / float64(c.Height)
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, mgl64.Vec3{0, 1, 0})
}

// ViewProjection returns the combined projection and view matrix.
func (c *Camera) ViewProjection() mgl64.Mat4 {
	proj := mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect(), c.Near, c.Far)
	return proj.Mul4(c.View())
}

// Projection is a point mapped to the screen.
type Projection struct {
	X, Y float64
	// Depth is the distance along the view direction.
	Depth float64
	// Scale converts a world length at this depth to pixels.
	Scale float64
}

// Project maps a world point to pixel coordinates. It reports false for points
// outside the near and far planes.
func (c *Camera) Project(viewProj mgl64.Mat4, p mgl64.Vec3) (Projection, bool) {
	clip := viewProj.Mul4x1(p.Vec4(1))
	w := clip.W()
	if w < c.Near || w > c.Far {
		return Projection{}, false
	}

	halfW := float64(c.Width) / 2
	halfH := float64(c.Height) / 2
	return Projection{
		X:     halfW + clip.X()/w*halfW,
		Y:     halfH - clip.Y()/w*halfH,
		Depth: w,
		Scale: halfH / (w * math.Tan(mgl64.DegToRad(c.FOV)/2)),
	}, true
}
