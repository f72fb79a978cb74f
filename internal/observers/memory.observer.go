package observers

import (
	"context"
	"fmt"

	"nodewarden/internal/config"
	"nodewarden/internal/health"
	"nodewarden/internal/models"
	"nodewarden/internal/series"
	"nodewarden/internal/services"
)

// MemoryObserver watches node memory pressure (percent used) and the
// working set of each configured process name (MB). Memory is a trend
// metric like CPU.
type MemoryObserver struct {
	watcher
	cfg       config.MemoryConfig
	nodeProbe func(ctx context.Context) (*models.MemoryStatus, error)
	procProbe func(ctx context.Context, name string) (models.ProcessStatus, bool, error)
}

func NewMemoryObserver(cfg config.MemoryConfig, sink health.Sink) *MemoryObserver {
	return &MemoryObserver{
		watcher:   newWatcher("memory", cfg.Common, sink, series.CircularBuffer, true),
		cfg:       cfg,
		nodeProbe: services.GetMemoryUsage,
		procProbe: services.SampleWatchedProcess,
	}
}

func (o *MemoryObserver) Observe(ctx context.Context) error {
	if o.cfg.NodePercent.Enabled() {
		status, err := o.nodeProbe(ctx)
		if err != nil {
			return fmt.Errorf("node memory: %w", err)
		}
		o.buffer("node", models.MetricMemoryPercent).Append(status.UsagePercent)
		if err := o.settle("node", models.MetricMemoryPercent, o.cfg.NodePercent); err != nil {
			return err
		}
	}

	if o.cfg.ProcessMB.Enabled() && len(o.cfg.WatchProcesses) > 0 {
		err := o.scan(ctx, o.cfg.WatchProcesses, models.MetricMemoryMB,
			func(ctx context.Context, name string) (float64, bool, error) {
				status, found, err := o.procProbe(ctx, name)
				if err != nil {
					return 0, false, Transient(err)
				}
				return status.MemoryMB, found, nil
			})
		if err != nil {
			return err
		}
		for _, name := range o.cfg.WatchProcesses {
			if err := o.settle(name, models.MetricMemoryMB, o.cfg.ProcessMB); err != nil {
				return err
			}
		}
	}

	return nil
}
