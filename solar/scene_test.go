package solar_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/kinematics"
	"github.com/plus3/orrery/solar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const binaryStar = `
name: binary
scale: 0.001
timeScale: 2
segments: 16
bodies:
  - name: alpha
    radius: 500
    tilt: 10
    spin: {period: 8}
    orbit: {period: 40, radius: 3000, inclination: 3}
    appearance: {color: "#ffcc00", emissive: true, opacity: 1}
  - name: beta
    radius: 300
    spin: {period: 6}
    appearance: {color: "#3366FF", castShadow: true}
lights:
  - name: glow
    track: alpha
    position: [4, 1, 0]
    intensity: 0.8
    color: "#ffffff"
    shadow: {radius: 20, mapSize: 1024}
camera:
  position: [0, 2, 8]
  fov: 60
  near: 0.5
  far: 50
`

func TestLoadScene(t *testing.T) {
	cfg, err := solar.LoadScene(strings.NewReader(binaryStar))
	require.NoError(t, err)

	assert.Equal(t, "binary", cfg.Name)
	assert.Equal(t, 2.0, cfg.TimeScale)
	require.Len(t, cfg.Bodies, 2)

	alpha := cfg.Bodies[0]
	assert.Equal(t, 10.0, alpha.Tilt)
	require.NotNil(t, alpha.Orbit)
	assert.Equal(t, 3000.0, alpha.Orbit.Radius)
	assert.Equal(t, "#ffcc00", alpha.Appearance.Color.String())
	assert.True(t, alpha.Appearance.Emissive)

	beta := cfg.Bodies[1]
	assert.Nil(t, beta.Orbit)
	assert.Equal(t, uint8(0x33), beta.Appearance.Color.R)
	assert.Equal(t, uint8(0xff), beta.Appearance.Color.B)

	require.Len(t, cfg.Lights, 1)
	assert.Equal(t, "alpha", cfg.Lights[0].Track)
	assert.Equal(t, 1024, cfg.Lights[0].Shadow.MapSize)
	assert.Equal(t, [3]float64{0, 2, 8}, cfg.Camera.Position)
}

func TestLoadedSceneRuns(t *testing.T) {
	cfg, err := solar.LoadScene(strings.NewReader(binaryStar))
	require.NoError(t, err)

	w := newWorld(t, cfg)
	snap := w.run(10, 1)

	alpha, ok := snap.Body("alpha")
	require.True(t, ok)
	assert.InDelta(t, 3.0, math.Hypot(alpha.Position.X(), alpha.Position.Z()), 1e-9)
	assert.InDelta(t, 20.0, snap.Scaled, 1e-12)

	glow, _ := snap.Light("glow")
	assert.Equal(t, alpha.Position.X(), glow.Position.X())
	assert.Equal(t, 1.0, glow.Position.Y())
}

func TestDefaultSceneRoundTripsThroughYAML(t *testing.T) {
	out, err := yaml.Marshal(solar.DefaultScene())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o644))

	cfg, err := solar.LoadSceneFile(path)
	require.NoError(t, err)
	assert.Equal(t, solar.DefaultScene(), cfg)
}

func TestLoadSceneErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc string) string
		target error
	}{
		{
			name:   "zero spin period",
			mutate: func(doc string) string { return strings.Replace(doc, "period: 8", "period: 0", 1) },
			target: kinematics.ErrInvalidPeriod,
		},
		{
			name:   "negative orbit period",
			mutate: func(doc string) string { return strings.Replace(doc, "period: 40", "period: -40", 1) },
			target: kinematics.ErrInvalidPeriod,
		},
		{
			name:   "zero orbit radius",
			mutate: func(doc string) string { return strings.Replace(doc, "radius: 3000", "radius: 0", 1) },
			target: kinematics.ErrInvalidRadius,
		},
		{
			name:   "zero body radius",
			mutate: func(doc string) string { return strings.Replace(doc, "radius: 300\n", "radius: 0\n", 1) },
			target: kinematics.ErrInvalidRadius,
		},
		{
			name:   "zero time scale",
			mutate: func(doc string) string { return strings.Replace(doc, "timeScale: 2", "timeScale: 0", 1) },
			target: solar.ErrInvalidTimeScale,
		},
		{
			name:   "unknown light target",
			mutate: func(doc string) string { return strings.Replace(doc, "track: alpha", "track: gamma", 1) },
			target: solar.ErrUnknownTarget,
		},
		{
			name:   "duplicate body",
			mutate: func(doc string) string { return strings.Replace(doc, "name: beta", "name: alpha", 1) },
			target: solar.ErrDuplicateName,
		},
		{
			name:   "bad color",
			mutate: func(doc string) string { return strings.Replace(doc, "#3366FF", "#33669", 1) },
			target: solar.ErrInvalidColor,
		},
		{
			name:   "camera far before near",
			mutate: func(doc string) string { return strings.Replace(doc, "far: 50", "far: 0.1", 1) },
			target: solar.ErrInvalidCamera,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := solar.LoadScene(strings.NewReader(tt.mutate(binaryStar)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestLoadSceneRejectsUnknownFields(t *testing.T) {
	_, err := solar.LoadScene(strings.NewReader(strings.Replace(binaryStar, "segments: 16", "segmentz: 16", 1)))
	assert.Error(t, err)
}

func TestBuildFailsBeforeSpawning(t *testing.T) {
	cfg := solar.DefaultScene()
	cfg.Bodies[2].Orbit.Period = 0

	// Validation runs before storage or logger are touched.
	scene, err := solar.Build(nil, cfg, nil)
	assert.True(t, errors.Is(err, kinematics.ErrInvalidPeriod), "got %v", err)
	assert.Nil(t, scene)
}

func TestBuildRequiresRegisteredComponents(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[solar.Body](registry)
	storage := ecs.NewStorage(registry)

	scene, err := solar.Build(storage, solar.DefaultScene(), zap.NewNop())
	assert.True(t, errors.Is(err, solar.ErrUnregistered), "got %v", err)
	assert.Contains(t, err.Error(), "Transform")
	assert.Nil(t, scene)

	spawned := 0
	for range ecs.NewView[struct{ *solar.Body }](storage).Values() {
		spawned++
	}
	assert.Zero(t, spawned)
}

func TestSettings(t *testing.T) {
	settings, err := solar.NewSettings(1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, settings.TimeScale())

	var changes [][2]float64
	settings.Subscribe(func(old, new float64) { changes = append(changes, [2]float64{old, new}) })

	require.NoError(t, settings.SetTimeScale(2.5))
	require.NoError(t, settings.SetTimeScale(2.5))
	assert.Equal(t, 2.5, settings.TimeScale())
	assert.Equal(t, [][2]float64{{1, 2.5}}, changes)

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1), solar.MaxTimeScale * 2} {
		err := settings.SetTimeScale(bad)
		assert.True(t, errors.Is(err, solar.ErrInvalidTimeScale), "SetTimeScale(%v) = %v", bad, err)
	}
	assert.Equal(t, 2.5, settings.TimeScale())

	_, err = solar.NewSettings(0)
	assert.Error(t, err)
}

func TestSettingsConcurrentAccess(t *testing.T) {
	settings, err := solar.NewSettings(1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = settings.SetTimeScale(v)
				_ = settings.TimeScale()
			}
		}(float64(i))
	}
	wg.Wait()

	scale := settings.TimeScale()
	assert.True(t, scale >= 1 && scale <= 8)
}
