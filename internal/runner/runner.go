// Package runner drives the configured observers, one goroutine per
// observer on its own interval.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nodewarden/internal/metrics"
	"nodewarden/internal/observers"
)

// Runner owns the observer set. Transient trouble is handled inside a
// cycle; an error that escapes a cycle is fatal, stops every observer
// and propagates out of Run so the supervising process manager decides
// whether to restart the agent.
type Runner struct {
	observers []observers.Observer
}

func New(obs ...observers.Observer) *Runner {
	return &Runner{observers: obs}
}

// Run blocks until the context is cancelled or an observer fails
// fatally. Cancellation is a clean shutdown and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.observers) == 0 {
		return fmt.Errorf("no observers enabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, o := range r.observers {
		o := o
		g.Go(func() error {
			return r.loop(gctx, o)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) loop(ctx context.Context, o observers.Observer) error {
	zap.S().Infof("observer %s started (interval: %v)", o.Name(), o.Interval())

	// First cycle runs immediately so the node has health state before
	// the first full interval elapses.
	if err := r.cycle(ctx, o); err != nil {
		return err
	}

	ticker := time.NewTicker(o.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.S().Infof("observer %s stopped", o.Name())
			return ctx.Err()
		case <-ticker.C:
			if err := r.cycle(ctx, o); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) cycle(ctx context.Context, o observers.Observer) error {
	start := time.Now()
	err := o.Observe(ctx)
	elapsed := time.Since(start)

	metrics.CycleDuration.WithLabelValues(o.Name()).Observe(elapsed.Seconds())

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		metrics.CycleErrorsTotal.WithLabelValues(o.Name()).Inc()
		return fmt.Errorf("observer %s: %w", o.Name(), err)
	}

	metrics.CyclesTotal.WithLabelValues(o.Name()).Inc()
	zap.S().Debugf("observer %s cycle completed in %v", o.Name(), elapsed)
	return nil
}
