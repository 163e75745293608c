// Command orrery opens a window with the animated Earth, Moon and Sun scene.
//
// Arrow keys or a left-drag orbit the camera, the wheel zooms and Q or Escape quits.
// The time scale can be changed from the Time panel.
package main

import (
	"flag"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/ecs/debugui"
	debugui_ebiten "github.com/plus3/orrery/ecs/debugui/ebiten"
	"github.com/plus3/orrery/solar"
	"github.com/plus3/orrery/solar/render"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	screenWidth  = 1280
	screenHeight = 720
	statsHistory = 240
)

type game struct {
	backend debugui_ebiten.ImguiBackend
	update  *ecs.Scheduler
	draw    *ecs.Scheduler
	screen  *ecs.Singleton[render.Screen]
	fault   *ecs.Singleton[solar.Fault]
	timer   *debugui.FrameTimer
}

func (g *game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyQ) || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.backend.Frame(g.update, g.timer.Delta())

	if fault := g.fault.Get(); fault != nil && fault.Err != nil {
		return fault.Err
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.screen.Get().Image = screen
	g.draw.Once(0)
	g.backend.Overlay(screen)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func main() {
	scenePath := flag.String("scene", "", "YAML scene file; the built-in Earth, Moon and Sun scene when empty")
	printScene := flag.Bool("print-scene", false, "write the built-in scene as YAML to stdout and exit")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if *printScene {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(solar.DefaultScene()); err != nil {
			logger.Fatal("encode scene", zap.Error(err))
		}
		return
	}

	cfg := solar.DefaultScene()
	if *scenePath != "" {
		if cfg, err = solar.LoadSceneFile(*scenePath); err != nil {
			logger.Fatal("load scene", zap.String("path", *scenePath), zap.Error(err))
		}
	}

	backend := debugui_ebiten.NewImguiBackend("orrery: "+cfg.Name, screenWidth, screenHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	registry := ecs.NewComponentRegistry()
	solar.RegisterComponents(registry)
	debugui.RegisterComponents(registry)
	storage := ecs.NewStorage(registry)

	scene, err := solar.Build(storage, cfg, logger)
	if err != nil {
		logger.Fatal("build scene", zap.Error(err))
	}
	scene.Session.Settings.Subscribe(func(old, new float64) {
		logger.Info("time scale changed", zap.Float64("old", old), zap.Float64("new", new))
	})
	storage.AddSingleton(render.Screen{})

	update := ecs.NewScheduler(storage)
	solar.RegisterSystems(update)
	update.Register(&solar.FaultSystem{OnFault: func(err error) {
		logger.Error("scene stopped", zap.Error(err))
	}})
	update.Register(&render.CameraControlSystem{})
	update.Register(&debugui.ImguiSystem{})
	update.Register(&debugui.PerformanceStatsSystem{})

	draw := ecs.NewScheduler(storage)
	draw.Register(&render.RenderSystem{Background: color.RGBA{R: 0x04, G: 0x05, B: 0x0c, A: 0xff}})

	debugui.SpawnPerformanceStats(storage, statsHistory, update.GetStats)
	render.SpawnPanels(storage, scene)

	g := &game{
		backend: backend,
		update:  update,
		draw:    draw,
		screen:  ecs.NewSingleton[render.Screen](storage),
		fault:   ecs.NewSingleton[solar.Fault](storage),
		timer:   debugui.NewFrameTimer(),
	}

	logger.Info("starting", zap.String("scene", cfg.Name), zap.Stringer("session", scene.Session.ID))
	if err := ebiten.RunGame(g); err != nil {
		logger.Fatal("game loop", zap.Error(err))
	}
}
