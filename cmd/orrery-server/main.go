// Command orrery-server runs a scene headless at a fixed tick and serves its
// snapshots, time scale and metrics over HTTP. It prints a run report on exit.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/metrics"
	"github.com/plus3/orrery/solar"
	"github.com/plus3/orrery/stream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	scenePath := flag.String("scene", "", "YAML scene file; the built-in Earth, Moon and Sun scene when empty")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	interval := flag.Duration("interval", time.Second/60, "scheduler tick interval")
	duration := flag.Duration("duration", 0, "stop after this long; run until interrupted when zero")
	publishEvery := flag.Int64("publish-every", 1, "publish a snapshot every N frames")
	broadcastRate := flag.Float64("broadcast-rate", 30, "maximum websocket snapshots per second; unlimited when zero")
	timeScale := flag.Float64("timescale", 0, "initial time scale; the scene's when zero")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(logger, options{
		scenePath:     *scenePath,
		addr:          *addr,
		interval:      *interval,
		duration:      *duration,
		publishEvery:  *publishEvery,
		broadcastRate: *broadcastRate,
		timeScale:     *timeScale,
	}); err != nil {
		logger.Error("orrery-server", zap.Error(err))
		os.Exit(1)
	}
}

type options struct {
	scenePath     string
	addr          string
	interval      time.Duration
	duration      time.Duration
	publishEvery  int64
	broadcastRate float64
	timeScale     float64
}

func run(logger *zap.Logger, opts options) error {
	if opts.interval <= 0 {
		return errors.Errorf("interval must be positive, got %s", opts.interval)
	}

	cfg := solar.DefaultScene()
	if opts.scenePath != "" {
		var err error
		if cfg, err = solar.LoadSceneFile(opts.scenePath); err != nil {
			return err
		}
	}
	if opts.timeScale != 0 {
		cfg.TimeScale = opts.timeScale
	}

	registry := ecs.NewComponentRegistry()
	solar.RegisterComponents(registry)
	storage := ecs.NewStorage(registry)

	scene, err := solar.Build(storage, cfg, logger)
	if err != nil {
		return errors.Wrap(err, "build scene")
	}
	logger = logger.With(zap.Stringer("session", scene.Session.ID))
	scene.Session.Settings.Subscribe(func(old, new float64) {
		logger.Info("time scale changed", zap.Float64("old", old), zap.Float64("new", new))
	})

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(promRegistry)
	hub := stream.NewHub(logger.Named("stream"), rate.Limit(opts.broadcastRate))
	server := stream.NewServer(hub, scene.Session.Settings, metrics.Handler(promRegistry), logger.Named("http"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	report := &Report{Scene: cfg.Name, Interval: opts.interval}

	scheduler := ecs.NewScheduler(storage)
	solar.RegisterSystems(scheduler)
	scheduler.Register(&frameSampler{stats: &report.FrameInterval})
	scheduler.Register(&solar.PublishSystem{
		Sinks: []solar.Sink{hub, collector},
		Every: opts.publishEvery,
		Stats: scheduler.GetStats,
	})
	scheduler.Register(&solar.FaultSystem{OnFault: func(err error) {
		cancel(err)
	}})

	runtime.ReadMemStats(&report.MemStatsStart)
	start := time.Now()
	logger.Info("running", zap.String("scene", cfg.Name), zap.Duration("interval", opts.interval), zap.String("addr", opts.addr))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.Run(gctx, opts.interval)
		return nil
	})
	g.Go(func() error {
		return server.ListenAndServe(gctx, opts.addr)
	})
	serveErr := g.Wait()

	report.Duration = time.Since(start)
	report.Snapshot = solar.TakeSnapshot(storage)
	report.Snapshot.Systems = solar.Timings(scheduler.GetStats())
	runtime.ReadMemStats(&report.MemStatsEnd)

	if err := report.Generate(os.Stdout); err != nil {
		logger.Warn("report", zap.Error(err))
	}

	if serveErr != nil {
		return serveErr
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) && !errors.Is(cause, context.DeadlineExceeded) {
		return errors.Wrap(cause, "scene stopped")
	}
	logger.Info("stopped", zap.Int64("frames", report.Snapshot.Frame), zap.Float64("scaled", report.Snapshot.Scaled))
	return nil
}
