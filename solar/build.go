package solar

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/plus3/orrery/ecs"
	"go.uber.org/zap"
)

// Scene is the result of Build: the session and the entities it spawned, by name.
type Scene struct {
	Session Session
	Bodies  map[string]ecs.EntityId
	Lights  map[string]ecs.EntityId
}

// Build validates cfg and spawns its bodies and lights into storage. It also
// installs the Clock, Fault, Camera and Session singletons, replacing any that exist.
// The components must already be registered with RegisterComponents; if they
// are not, Build fails with ErrUnregistered before spawning anything.
func Build(storage *ecs.Storage, cfg SceneConfig, logger *zap.Logger) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := checkRegistered(storage); err != nil {
		return nil, err
	}

	settings, err := NewSettings(cfg.TimeScale)
	if err != nil {
		return nil, err
	}

	scene := &Scene{
		Session: Session{ID: uuid.New(), Settings: settings},
		Bodies:  make(map[string]ecs.EntityId, len(cfg.Bodies)),
		Lights:  make(map[string]ecs.EntityId, len(cfg.Lights)),
	}
	logger = logger.With(zap.Stringer("session", scene.Session.ID))

	for _, body := range cfg.Bodies {
		id, err := spawnBody(storage, cfg, body)
		if err != nil {
			return nil, errors.Wrapf(err, "body %q", body.Name)
		}
		scene.Bodies[body.Name] = id
		logger.Debug("spawned body", zap.String("body", body.Name), zap.Stringer("entity", id))
	}

	for _, light := range cfg.Lights {
		component := Light{
			Name:      light.Name,
			Position:  mgl64.Vec3(light.Position),
			Intensity: light.Intensity,
			Color:     light.Color.Color(),
		}
		if light.Shadow != nil {
			component.Shadow = &Shadow{Radius: light.Shadow.Radius, MapSize: light.Shadow.MapSize}
		}
		if light.Track != "" {
			component.Target = storage.CreateEntityRef(scene.Bodies[light.Track])
		}

		id := storage.Spawn(component)
		scene.Lights[light.Name] = id
		logger.Debug("spawned light", zap.String("light", light.Name), zap.String("track", light.Track))
	}

	storage.AddSingleton(Clock{Scale: cfg.TimeScale})
	storage.AddSingleton(Fault{})
	storage.AddSingleton(scene.Session)
	storage.AddSingleton(NewCamera(
		mgl64.Vec3(cfg.Camera.Position),
		mgl64.Vec3(cfg.Camera.Target),
		cfg.Camera.FOV, cfg.Camera.Near, cfg.Camera.Far,
	))

	logger.Info("scene built",
		zap.String("scene", cfg.Name),
		zap.Int("bodies", len(scene.Bodies)),
		zap.Int("lights", len(scene.Lights)),
		zap.Float64("time_scale", cfg.TimeScale),
	)
	return scene, nil
}

func spawnBody(storage *ecs.Storage, cfg SceneConfig, body BodyConfig) (ecs.EntityId, error) {
	motion, err := body.motion(cfg.Scale)
	if err != nil {
		return 0, err
	}

	segments := cfg.Segments
	if segments <= 0 {
		segments = 32
	}

	transform := Transform{Orientation: mgl64.QuatIdent()}
	components := []any{
		Body{Name: body.Name, Radius: motion.radius},
		Appearance{
			Color:         body.Appearance.Color.Color(),
			Emissive:      body.Appearance.Emissive,
			CastShadow:    body.Appearance.CastShadow,
			ReceiveShadow: body.Appearance.ReceiveShadow,
			Opacity:       body.Appearance.Opacity,
			Texture:       body.Appearance.Texture,
			NormalMap:     body.Appearance.NormalMap,
			Segments:      segments,
		},
	}

	if motion.spin != nil {
		components = append(components, Spin{Motion: *motion.spin, Tilt: motion.tilt})
	}
	if motion.orbit != nil {
		transform.Position = motion.orbit.Motion.Position(0)
		components = append(components, *motion.orbit)
	}

	return storage.Spawn(append(components, transform)...), nil
}

// RegisterSystems adds the motion systems to scheduler in the order they must run.
func RegisterSystems(scheduler *ecs.Scheduler) {
	scheduler.Register(&ClockSystem{})
	scheduler.Register(&SpinSystem{})
	scheduler.Register(&OrbitSystem{})
	scheduler.Register(&LightTrackingSystem{})
}
