package solar

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/plus3/orrery/kinematics"
	"gopkg.in/yaml.v3"
)

var (
	ErrDuplicateName = errors.New("duplicate name")
	ErrUnknownTarget = errors.New("unknown light target")
	ErrInvalidCamera = errors.New("invalid camera")
	ErrInvalidColor  = errors.New("invalid color")
	ErrUnregistered  = errors.New("component not registered")
)

// SceneConfig describes a whole scene. Lengths are in kilometres and are
// multiplied by Scale when the scene is built; periods are in seconds.
type SceneConfig struct {
	Name      string        `yaml:"name"`
	Scale     float64       `yaml:"scale"`
	TimeScale float64       `yaml:"timeScale"`
	Segments  int           `yaml:"segments"`
	Bodies    []BodyConfig  `yaml:"bodies"`
	Lights    []LightConfig `yaml:"lights"`
	Camera    CameraConfig  `yaml:"camera"`
}

type BodyConfig struct {
	Name       string           `yaml:"name"`
	Radius     float64          `yaml:"radius"`
	Tilt       float64          `yaml:"tilt"` // degrees
	Spin       *SpinConfig      `yaml:"spin,omitempty"`
	Orbit      *OrbitConfig     `yaml:"orbit,omitempty"`
	Appearance AppearanceConfig `yaml:"appearance"`
}

type SpinConfig struct {
	Period float64 `yaml:"period"`
}

type OrbitConfig struct {
	Period      float64 `yaml:"period"`
	Radius      float64 `yaml:"radius"`
	Inclination float64 `yaml:"inclination"` // degrees
}

type AppearanceConfig struct {
	Color         HexColor `yaml:"color"`
	Emissive      bool     `yaml:"emissive"`
	CastShadow    bool     `yaml:"castShadow"`
	ReceiveShadow bool     `yaml:"receiveShadow"`
	Opacity       float64  `yaml:"opacity"`
	Texture       string   `yaml:"texture,omitempty"`
	NormalMap     string   `yaml:"normalMap,omitempty"`
}

type LightConfig struct {
	Name      string        `yaml:"name"`
	Track     string        `yaml:"track,omitempty"`
	Position  [3]float64    `yaml:"position"` // scene units
	Intensity float64       `yaml:"intensity"`
	Color     HexColor      `yaml:"color"`
	Shadow    *ShadowConfig `yaml:"shadow,omitempty"`
}

type ShadowConfig struct {
	Radius  float64 `yaml:"radius"`
	MapSize int     `yaml:"mapSize"`
}

type CameraConfig struct {
	Position [3]float64 `yaml:"position"` // scene units
	Target   [3]float64 `yaml:"target"`
	FOV      float64    `yaml:"fov"`
	Near     float64    `yaml:"near"`
	Far      float64    `yaml:"far"`
}

// HexColor is an opaque RGB colour written as "#rrggbb".
type HexColor color.RGBA

func ParseHexColor(s string) (HexColor, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return HexColor{}, errors.Wrapf(ErrInvalidColor, "%q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return HexColor{}, errors.Wrapf(ErrInvalidColor, "%q", s)
	}
	return HexColor{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func (c HexColor) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c HexColor) Color() color.RGBA {
	return color.RGBA(c)
}

func (c HexColor) MarshalYAML() (any, error) {
	return c.String(), nil
}

func (c *HexColor) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseHexColor(s)
	if err != nil {
		return errors.Wrapf(err, "line %d", node.Line)
	}
	*c = parsed
	return nil
}

const (
	earthRadius = 6357.0
	moonRadius  = 1737.0
	sunRadius   = 10000.0

	earthMoonDistance = 2.5 * earthRadius
	earthSunDistance  = 12 * earthMoonDistance

	sunSpinPeriod        = 30.0
	moonSpinPeriod       = 120.0
	earthSpinPeriod      = moonSpinPeriod / 28
	atmosphereSpinPeriod = 0.8 * earthSpinPeriod
	moonOrbitPeriod      = moonSpinPeriod
	// The Sun circles the Earth: a geocentric toy, not astronomy.
	sunOrbitPeriod = 365.25 * earthSpinPeriod
)

// DefaultScene returns the Earth, its cloud layer, the Moon and the Sun, lit by a
// directional light that follows the Sun.
func DefaultScene() SceneConfig {
	return SceneConfig{
		Name:      "earth-moon-sun",
		Scale:     1 / earthRadius,
		TimeScale: DefaultTimeScale,
		Segments:  64,
		Bodies: []BodyConfig{
			{
				Name:   "earth",
				Radius: earthRadius,
				Tilt:   23.4,
				Spin:   &SpinConfig{Period: earthSpinPeriod},
				Appearance: AppearanceConfig{
					Color:         HexColor{R: 0x2f, G: 0x6f, B: 0xd0, A: 0xff},
					CastShadow:    true,
					ReceiveShadow: true,
					Opacity:       1,
					Texture:       "textures/earthTexture.jpg",
					NormalMap:     "textures/earthNormalMap.png",
				},
			},
			{
				Name:   "atmosphere",
				Radius: earthRadius + 100,
				Tilt:   23.4,
				Spin:   &SpinConfig{Period: atmosphereSpinPeriod},
				Appearance: AppearanceConfig{
					Color:         HexColor{R: 0xf0, G: 0xf4, B: 0xff, A: 0xff},
					ReceiveShadow: true,
					Opacity:       0.35,
					Texture:       "textures/earthCloudsTexture.png",
				},
			},
			{
				Name:   "moon",
				Radius: moonRadius,
				Spin:   &SpinConfig{Period: moonSpinPeriod},
				Orbit:  &OrbitConfig{Period: moonOrbitPeriod, Radius: earthMoonDistance, Inclination: 5},
				Appearance: AppearanceConfig{
					Color:         HexColor{R: 0xb8, G: 0xb8, B: 0xb0, A: 0xff},
					CastShadow:    true,
					ReceiveShadow: true,
					Opacity:       1,
					Texture:       "textures/moonTexture.png",
					NormalMap:     "textures/moonNormalMap.png",
				},
			},
			{
				Name:   "sun",
				Radius: sunRadius,
				Spin:   &SpinConfig{Period: sunSpinPeriod},
				Orbit:  &OrbitConfig{Period: sunOrbitPeriod, Radius: earthSunDistance},
				Appearance: AppearanceConfig{
					Color:    HexColor{R: 0xff, G: 0xc8, B: 0x3c, A: 0xff},
					Emissive: true,
					Opacity:  1,
					Texture:  "textures/sunTexture.jpg",
				},
			},
		},
		Lights: []LightConfig{
			{
				Name:      "sunlight",
				Track:     "sun",
				Position:  [3]float64{10, 0, 0},
				Intensity: 1,
				Color:     HexColor{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
				Shadow:    &ShadowConfig{Radius: 50, MapSize: 4096},
			},
		},
		Camera: CameraConfig{
			Position: [3]float64{5, 0, 3},
			FOV:      75,
			Near:     0.1,
			Far:      100,
		},
	}
}

// LoadScene decodes and validates a YAML scene.
func LoadScene(r io.Reader) (SceneConfig, error) {
	var cfg SceneConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return SceneConfig{}, errors.Wrap(err, "decode scene")
	}
	if err := cfg.Validate(); err != nil {
		return SceneConfig{}, err
	}
	return cfg, nil
}

// LoadSceneFile is LoadScene for a file path.
func LoadSceneFile(path string) (SceneConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return SceneConfig{}, errors.Wrap(err, "open scene")
	}
	defer f.Close()

	cfg, err := LoadScene(f)
	if err != nil {
		return SceneConfig{}, errors.Wrapf(err, "scene %s", path)
	}
	return cfg, nil
}

// Validate checks every value that would otherwise produce a division by zero
// or a NaN while the scene runs.
func (c SceneConfig) Validate() error {
	if err := kinematics.ValidateScale(c.Scale); err != nil {
		return errors.Wrap(err, "length scale")
	}
	if err := validateTimeScale(c.TimeScale); err != nil {
		return err
	}

	names := make(map[string]bool, len(c.Bodies)+len(c.Lights))
	for i, body := range c.Bodies {
		if body.Name == "" {
			return errors.Errorf("body %d has no name", i)
		}
		if names[body.Name] {
			return errors.Wrapf(ErrDuplicateName, "body %q", body.Name)
		}
		names[body.Name] = true

		if _, err := body.motion(c.Scale); err != nil {
			return errors.Wrapf(err, "body %q", body.Name)
		}
	}

	for i, light := range c.Lights {
		if light.Name == "" {
			return errors.Errorf("light %d has no name", i)
		}
		if names[light.Name] {
			return errors.Wrapf(ErrDuplicateName, "light %q", light.Name)
		}
		names[light.Name] = true

		if light.Track != "" && !c.hasBody(light.Track) {
			return errors.Wrapf(ErrUnknownTarget, "light %q tracks %q", light.Name, light.Track)
		}
		if light.Shadow != nil && (light.Shadow.Radius < 0 || light.Shadow.MapSize <= 0) {
			return errors.Errorf("light %q: invalid shadow %+v", light.Name, *light.Shadow)
		}
	}

	return c.Camera.validate()
}

func (c SceneConfig) hasBody(name string) bool {
	for _, body := range c.Bodies {
		if body.Name == name {
			return true
		}
	}
	return false
}

// bodyMotion is a body's configuration converted to scene units and radians.
type bodyMotion struct {
	radius float64
	tilt   float64
	spin   *kinematics.Spin
	orbit  *Orbit
}

func (b BodyConfig) motion(scale float64) (bodyMotion, error) {
	m := bodyMotion{
		radius: b.Radius * scale,
		tilt:   mgl64.DegToRad(b.Tilt),
	}
	if !(m.radius > 0) || math.IsInf(m.radius, 0) {
		return m, errors.Wrapf(kinematics.ErrInvalidRadius, "radius = %v", b.Radius)
	}
	if math.Abs(b.Tilt) >= 90 || math.IsNaN(b.Tilt) {
		return m, errors.Wrapf(kinematics.ErrInvalidAxis, "tilt = %v", b.Tilt)
	}

	if b.Spin != nil {
		spin := kinematics.Spin{Period: b.Spin.Period}
		if m.tilt != 0 {
			spin.Axis = kinematics.TiltedAxis(m.tilt)
		}
		if err := spin.Validate(); err != nil {
			return m, err
		}
		m.spin = &spin
	}

	if b.Orbit != nil {
		if math.Abs(b.Orbit.Inclination) >= 90 || math.IsNaN(b.Orbit.Inclination) {
			return m, errors.Errorf("orbital inclination %v out of range", b.Orbit.Inclination)
		}
		inclination := mgl64.DegToRad(b.Orbit.Inclination)
		radius := b.Orbit.Radius * scale
		orbit := kinematics.Orbit{
			Period:       b.Orbit.Period,
			Radius:       radius,
			Displacement: kinematics.DisplacementForInclination(inclination, radius),
		}
		if err := orbit.Validate(); err != nil {
			return m, err
		}
		m.orbit = &Orbit{Motion: orbit, Inclination: inclination}
	}

	return m, nil
}

func (c CameraConfig) validate() error {
	switch {
	case !(c.FOV > 0 && c.FOV < 180):
		return errors.Wrapf(ErrInvalidCamera, "fov %v", c.FOV)
	case !(c.Near > 0):
		return errors.Wrapf(ErrInvalidCamera, "near %v", c.Near)
	case !(c.Far > c.Near) || math.IsInf(c.Far, 0):
		return errors.Wrapf(ErrInvalidCamera, "far %v", c.Far)
	case mgl64.Vec3(c.Position).ApproxEqual(mgl64.Vec3(c.Target)):
		return errors.Wrapf(ErrInvalidCamera, "position %v equals target", c.Position)
	}
	return nil
}
