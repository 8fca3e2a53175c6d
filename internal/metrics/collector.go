package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineCollector bundles Prometheus metrics for the simulation engine.
// A nil *EngineCollector is valid and records nothing.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	StepsTotal        *prometheus.CounterVec
	StepBatchDuration prometheus.Histogram
	CommandsTotal     *prometheus.CounterVec
	CommandsRejected  *prometheus.CounterVec
	FramesEmitted     prometheus.Counter
	FramesDropped     prometheus.Counter
	Bodies            prometheus.Gauge
	SimTime           prometheus.Gauge
	TotalEnergy       prometheus.Gauge
	EnergyDrift       prometheus.Gauge
}

// NewEngineCollector registers engine metrics against reg, defaulting to
// the global Prometheus registry when nil.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &EngineCollector{gatherer: gatherer}
	var err error

	if c.StepsTotal, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nbody_steps_total",
		Help: "Integrator steps taken, labeled by method.",
	}, []string{"method"}), "nbody_steps_total"); err != nil {
		return nil, err
	}
	if c.StepBatchDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nbody_step_batch_duration_seconds",
		Help:    "Wall time spent advancing the body store for one tick or Step command.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}), "nbody_step_batch_duration_seconds"); err != nil {
		return nil, err
	}
	if c.CommandsTotal, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nbody_commands_total",
		Help: "Commands processed by the engine worker, labeled by command.",
	}, []string{"command"}), "nbody_commands_total"); err != nil {
		return nil, err
	}
	if c.CommandsRejected, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nbody_commands_rejected_total",
		Help: "Commands rejected at the engine boundary, labeled by command.",
	}, []string{"command"}), "nbody_commands_rejected_total"); err != nil {
		return nil, err
	}
	if c.FramesEmitted, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nbody_frames_emitted_total",
		Help: "Frames emitted to renderers.",
	}), "nbody_frames_emitted_total"); err != nil {
		return nil, err
	}
	if c.FramesDropped, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nbody_frames_dropped_total",
		Help: "Stale frames replaced before a renderer received them.",
	}), "nbody_frames_dropped_total"); err != nil {
		return nil, err
	}
	if c.Bodies, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nbody_bodies",
		Help: "Current number of bodies in the store.",
	}), "nbody_bodies"); err != nil {
		return nil, err
	}
	if c.SimTime, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nbody_sim_time",
		Help: "Simulation clock of the latest frame.",
	}), "nbody_sim_time"); err != nil {
		return nil, err
	}
	if c.TotalEnergy, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nbody_total_energy",
		Help: "Total energy E = K + U of the latest frame.",
	}), "nbody_total_energy"); err != nil {
		return nil, err
	}
	if c.EnergyDrift, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nbody_energy_drift_ratio",
		Help: "Largest relative energy drift since the bodies were last replaced.",
	}), "nbody_energy_drift_ratio"); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *EngineCollector) ObserveSteps(method string, n int, d time.Duration) {
	if c == nil {
		return
	}
	c.StepsTotal.WithLabelValues(method).Add(float64(n))
	c.StepBatchDuration.Observe(d.Seconds())
}

func (c *EngineCollector) ObserveCommand(name string) {
	if c == nil {
		return
	}
	c.CommandsTotal.WithLabelValues(name).Inc()
}

func (c *EngineCollector) ObserveRejected(name string) {
	if c == nil {
		return
	}
	c.CommandsRejected.WithLabelValues(name).Inc()
}

// ObserveFrame records an emitted frame's diagnostics.
func (c *EngineCollector) ObserveFrame(bodies int, t, energy, drift float64) {
	if c == nil {
		return
	}
	c.FramesEmitted.Inc()
	c.Bodies.Set(float64(bodies))
	c.SimTime.Set(t)
	c.TotalEnergy.Set(energy)
	c.EnergyDrift.Set(drift)
}

func (c *EngineCollector) ObserveDropped() {
	if c == nil {
		return
	}
	c.FramesDropped.Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *EngineCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
