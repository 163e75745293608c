// Package metrics exports scene snapshots as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/plus3/orrery/kinematics"
	"github.com/plus3/orrery/solar"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orrery"

// Collector is a solar.Sink that mirrors each published snapshot into gauges
// and counters.
type Collector struct {
	frames       prometheus.Counter
	snapshots    prometheus.Counter
	elapsed      prometheus.Gauge
	scaled       prometheus.Gauge
	timeScale    prometheus.Gauge
	faulted      prometheus.Gauge
	bodyPosition *prometheus.GaugeVec
	bodyTurns    *prometheus.GaugeVec
	lightPos     *prometheus.GaugeVec
	systemTime   *prometheus.GaugeVec
	systemRuns   *prometheus.GaugeVec

	mu        sync.Mutex
	lastFrame int64
}

// New creates the collector's metrics and registers them with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames advanced by the scene clock.",
		}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Snapshots received by the metrics sink.",
		}),
		elapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "elapsed_seconds",
			Help:      "Unscaled seconds since the scene started.",
		}),
		scaled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scaled_time_seconds",
			Help:      "Scene time that drives the motion.",
		}),
		timeScale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "time_scale",
			Help:      "Multiplier from elapsed to scaled time.",
		}),
		faulted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "faulted",
			Help:      "1 once the scene has stopped on a fault.",
		}),
		bodyPosition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "body_position",
			Help:      "Body position in scene units.",
		}, []string{"body", "axis"}),
		bodyTurns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "body_spin_turns",
			Help:      "Total turns a body has made about its spin axis.",
		}, []string{"body"}),
		lightPos: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "light_position",
			Help:      "Light position in scene units.",
		}, []string{"light", "axis"}),
		systemTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "system_duration_seconds",
			Help:      "Time spent in each update system.",
		}, []string{"system", "stat"}),
		systemRuns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "system_executions",
			Help:      "Times each update system has run.",
		}, []string{"system"}),
	}

	reg.MustRegister(
		c.frames,
		c.snapshots,
		c.elapsed,
		c.scaled,
		c.timeScale,
		c.faulted,
		c.bodyPosition,
		c.bodyTurns,
		c.lightPos,
		c.systemTime,
		c.systemRuns,
	)
	return c
}

var axes = [3]string{"x", "y", "z"}

// Publish implements solar.Sink.
func (c *Collector) Publish(s solar.Snapshot) {
	c.mu.Lock()
	if s.Frame > c.lastFrame {
		c.frames.Add(float64(s.Frame - c.lastFrame))
		c.lastFrame = s.Frame
	}
	c.mu.Unlock()

	c.snapshots.Inc()
	c.elapsed.Set(s.Elapsed)
	c.scaled.Set(s.Scaled)
	c.timeScale.Set(s.TimeScale)
	if s.Fault != "" {
		c.faulted.Set(1)
	} else {
		c.faulted.Set(0)
	}

	for _, body := range s.Bodies {
		for i, axis := range axes {
			c.bodyPosition.WithLabelValues(body.Name, axis).Set(body.Position[i])
		}
		c.bodyTurns.WithLabelValues(body.Name).Set(body.Unwrapped / kinematics.TwoPi)
	}
	for _, light := range s.Lights {
		for i, axis := range axes {
			c.lightPos.WithLabelValues(light.Name, axis).Set(light.Position[i])
		}
	}
	for _, sys := range s.Systems {
		c.systemTime.WithLabelValues(sys.Name, "last").Set(sys.Last.Seconds())
		c.systemTime.WithLabelValues(sys.Name, "avg").Set(sys.Avg.Seconds())
		c.systemTime.WithLabelValues(sys.Name, "max").Set(sys.Max.Seconds())
		c.systemRuns.WithLabelValues(sys.Name).Set(float64(sys.Executions))
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
