package sim

import (
	"context"
	"time"

	"github.com/san-kum/nbodylab/internal/dynamo"
	"github.com/san-kum/nbodylab/internal/engine"
	"github.com/san-kum/nbodylab/internal/logging"
	"github.com/san-kum/nbodylab/internal/metrics"
)

// Simulator runs headless simulations through a private paused engine, so
// batch runs take the same command path as interactive ones.
type Simulator struct {
	log       logging.Logger
	collector *metrics.EngineCollector
	metrics   []Metric
}

func New(log logging.Logger, collector *metrics.EngineCollector) *Simulator {
	if log == nil {
		log = logging.Noop()
	}
	return &Simulator{
		log:       log,
		collector: collector,
		metrics:   make([]Metric, 0),
	}
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Frames:  make([]dynamo.Frame, 0, cfg.Steps/cfg.FrameEvery+2),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()
	steps, err := s.drive(ctx, cfg, func(f dynamo.Frame) bool {
		result.Frames = append(result.Frames, f)
		for _, m := range s.metrics {
			m.Observe(f.Energies)
		}
		return true
	})
	result.StepsTaken = steps
	result.Elapsed = time.Since(start)

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if err != nil {
		return result, err
	}

	s.log.Debug(ctx, "run finished",
		logging.Int("steps", steps),
		logging.Int("frames", len(result.Frames)),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

// RunWithCallback streams frames to callback until the run ends or the
// callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(dynamo.Frame) bool) error {
	_, err := s.drive(ctx, cfg, callback)
	return err
}

func (s *Simulator) drive(ctx context.Context, cfg Config, fn func(dynamo.Frame) bool) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithCancel(ctx)
	eng := engine.New(
		engine.WithLogger(s.log),
		engine.WithMetrics(s.collector),
		engine.WithPlaying(false),
	)
	go func() { _ = eng.Run(ctx) }()
	defer func() {
		cancel()
		<-eng.Done()
	}()

	next := func() (dynamo.Frame, error) {
		select {
		case f, ok := <-eng.Frames():
			if !ok {
				if err := ctx.Err(); err != nil {
					return f, err
				}
				return f, dynamo.ErrEngineStopped
			}
			return f, nil
		case <-ctx.Done():
			return dynamo.Frame{}, ctx.Err()
		}
	}

	if err := eng.Send(ctx, engine.Initialize{Bodies: cfg.Bodies, Params: cfg.Params}); err != nil {
		return 0, err
	}
	f, err := next()
	if err != nil {
		return 0, err
	}
	if !fn(f) {
		return 0, nil
	}

	steps := 0
	for steps < cfg.Steps {
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		n := min(cfg.FrameEvery, cfg.Steps-steps)
		if err := eng.Send(ctx, engine.Step{Count: n}); err != nil {
			return steps, err
		}
		f, err := next()
		if err != nil {
			return steps, err
		}
		steps += n
		if !fn(f) {
			break
		}
	}
	return steps, nil
}
