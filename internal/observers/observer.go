// Package observers contains the per-domain health observers and the
// shared cycle machinery they run on.
package observers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nodewarden/internal/config"
	"nodewarden/internal/health"
	"nodewarden/internal/models"
	"nodewarden/internal/series"
)

// Observer is one resource-domain poller. Observe runs a single cycle:
// collect samples, evaluate, transition, submit. Fatal errors propagate
// to the runner; per-entity failures are handled inside the cycle.
type Observer interface {
	Name() string
	Interval() time.Duration
	Observe(ctx context.Context) error
}

// transientError marks a failure that affects one entity only. The scan
// loop logs it and moves on instead of aborting the cycle.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps a single-entity observation failure.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err is a single-entity failure.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// watcher carries the state every observer shares: its series map, its
// health tracker, its sink and its buffer policy. One watcher is owned
// by one observer; series access is single-writer by construction.
type watcher struct {
	name        string
	interval    time.Duration
	ttl         time.Duration
	parallelism int
	bufferSize  int
	policy      series.EvictionPolicy
	// retain keeps an alarming series' samples across cycles so the
	// clearing decision is made on the full window, not one reading.
	retain  bool
	tracker *health.Tracker
	sink    health.Sink
	buffers map[health.EntityKey]*series.Series[float64]
}

func newWatcher(name string, cfg config.Common, sink health.Sink, policy series.EvictionPolicy, retain bool) watcher {
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = config.DefaultParallelism()
	}
	return watcher{
		name:        name,
		interval:    cfg.Interval.Std(),
		ttl:         cfg.ReportTTL.Std(),
		parallelism: parallelism,
		bufferSize:  cfg.BufferSize,
		policy:      policy,
		retain:      retain,
		tracker:     health.NewTracker(name, cfg.ReportTTL.Std()),
		sink:        sink,
		buffers:     make(map[health.EntityKey]*series.Series[float64]),
	}
}

func (w *watcher) Name() string            { return w.name }
func (w *watcher) Interval() time.Duration { return w.interval }

// HasActiveAlarm reports whether any entity this observer tracks is
// currently alarming.
func (w *watcher) HasActiveAlarm() bool { return w.tracker.HasActiveAlarm() }

// buffer returns the series for an entity, creating it lazily on first
// observation. Series creation only fails on a capacity/policy mismatch,
// which Validate has already ruled out, so a failure here is a bug.
func (w *watcher) buffer(entity string, kind models.MetricKind) *series.Series[float64] {
	key := health.EntityKey{Entity: entity, Metric: kind}
	if s, ok := w.buffers[key]; ok {
		return s
	}
	s, err := series.New[float64](entity, kind, w.bufferSize, w.policy)
	if err != nil {
		panic(fmt.Sprintf("observer %s: %v", w.name, err))
	}
	w.buffers[key] = s
	return s
}

// scan probes a set of entities on a bounded worker pool and appends
// each reading into that entity's series. Buffers are created up front
// so every worker writes only to series it exclusively owns. Transient
// failures skip the entity; anything else aborts the scan. An aborted
// scan leaves the already-filled buffers intact for the next cycle.
func (w *watcher) scan(ctx context.Context, entities []string, kind models.MetricKind,
	probe func(ctx context.Context, entity string) (float64, bool, error)) error {

	for _, entity := range entities {
		w.buffer(entity, kind)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.parallelism)

	for _, entity := range entities {
		entity := entity
		s := w.buffer(entity, kind)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			value, found, err := probe(gctx, entity)
			if err != nil {
				if IsTransient(err) {
					zap.S().Warnf("%s: skipping %s this cycle: %v", w.name, entity, err)
					return nil
				}
				return fmt.Errorf("probe %s: %w", entity, err)
			}
			if !found {
				// Entity absent: no sample, no evaluation, any active
				// alarm stays untouched.
				return nil
			}
			s.Append(value)
			return nil
		})
	}

	return g.Wait()
}

// settle evaluates one entity's series and drives the health transition,
// submitting whatever report it yields. It also applies the buffer
// lifecycle: a disabled metric or a healthy entity is wiped at cycle
// end; an alarming trend series keeps its window, an alarming stateless
// series keeps only the alarm flag.
func (w *watcher) settle(entity string, kind models.MetricKind, th models.Threshold) error {
	s := w.buffer(entity, kind)
	fresh := s.TakeFresh()

	sev, applied := health.Evaluate(s, th)
	if !applied {
		if !th.Enabled() {
			s.Clear()
		}
		return nil
	}
	if !fresh {
		// No sample arrived this cycle: the entity was absent or its
		// probe failed. A retained window would re-judge stale data
		// here, so whatever alarm the entity holds stays as it is.
		return nil
	}

	st := s.Stats()
	report, active := w.tracker.Transition(
		health.EntityKey{Entity: entity, Metric: kind},
		sev,
		health.Detail{Observed: st.Average, Peak: st.Max, Threshold: th},
	)
	s.SetActiveAlarm(active)

	// The buffer is settled before the sink call so no series state is
	// held open across downstream I/O.
	if !active {
		s.Clear()
	} else if !w.retain {
		s.Reset()
	}

	if report != nil {
		if err := w.sink.Submit(*report); err != nil {
			return fmt.Errorf("submit report for %s: %w", entity, err)
		}
	}
	return nil
}

// classify drives the health transition for observers whose severity is
// decided directly (connectivity, certificate expiry) rather than by an
// average-threshold comparison.
func (w *watcher) classify(entity string, kind models.MetricKind, sev models.Severity, message string) error {
	report, _ := w.tracker.Transition(
		health.EntityKey{Entity: entity, Metric: kind},
		sev,
		health.Detail{Message: message},
	)
	if report != nil {
		if err := w.sink.Submit(*report); err != nil {
			return fmt.Errorf("submit report for %s: %w", entity, err)
		}
	}
	return nil
}
