package backtest

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"synapse-analytics/internal/model"
)

// SignalSource turns bars into one signal per bar.
type SignalSource interface {
	Name() string
	Signals(bars []model.Bar) []int
}

// SweepPoint is one parameterisation to backtest.
type SweepPoint struct {
	Params map[string]float64
	Source SignalSource
}

// SweepResult pairs a point with its run.
type SweepResult struct {
	Strategy string             `json:"strategy"`
	Params   map[string]float64 `json:"params"`
	Result   Result             `json:"result"`
}

// Sweep backtests every point over the same bars, each on its own engine,
// with at most workers running at once. Results keep the order of points.
// progress, when set, is called after each point completes; calls are
// serialized. The first error or a cancelled ctx stops the sweep.
func Sweep(ctx context.Context, bars []model.Bar, points []SweepPoint, workers int, progress func(done, total int), opts ...Option) ([]SweepResult, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]SweepResult, len(points))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	done := 0

	for i, p := range points {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res, err := RunBacktest(bars, p.Source.Signals(bars), opts...)
			if err != nil {
				return fmt.Errorf("sweep %s %v: %w", p.Source.Name(), p.Params, err)
			}
			results[i] = SweepResult{Strategy: p.Source.Name(), Params: p.Params, Result: res}

			if progress != nil {
				mu.Lock()
				done++
				progress(done, len(points))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Best returns the index of the result with the highest total return, or -1
// for an empty slice.
func Best(results []SweepResult) int {
	best := -1
	for i, r := range results {
		if best < 0 || r.Result.Metrics.TotalReturn > results[best].Result.Metrics.TotalReturn {
			best = i
		}
	}
	return best
}
