package sim

import (
	"context"
	"sync"
)

// Ensemble runs several configurations concurrently, each on its own
// engine with a fresh set of metrics.
type Ensemble struct {
	base       *Simulator
	newMetrics func() []Metric
}

func NewEnsemble(base *Simulator, newMetrics func() []Metric) *Ensemble {
	return &Ensemble{base: base, newMetrics: newMetrics}
}

// Run returns results in the order of cfgs, or the first error.
func (e *Ensemble) Run(ctx context.Context, cfgs []Config) ([]*Result, error) {
	results := make([]*Result, len(cfgs))
	errs := make([]error, len(cfgs))

	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		wg.Add(1)
		go func(idx int, cfg Config) {
			defer wg.Done()

			sim := New(e.base.log, e.base.collector)
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					sim.AddMetric(m)
				}
			}

			results[idx], errs[idx] = sim.Run(ctx, cfg)
		}(i, cfg)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
