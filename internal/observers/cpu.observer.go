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

// CPUObserver watches node CPU usage and the CPU usage of each
// configured process name. CPU is a trend metric: the series slides
// across cycles while an alarm is active so a single quiet reading does
// not clear a sustained spike.
type CPUObserver struct {
	watcher
	cfg       config.CPUConfig
	nodeProbe func(ctx context.Context) (*models.CPUStatus, error)
	procProbe func(ctx context.Context, name string) (models.ProcessStatus, bool, error)
}

func NewCPUObserver(cfg config.CPUConfig, sink health.Sink) *CPUObserver {
	return &CPUObserver{
		watcher:   newWatcher("cpu", cfg.Common, sink, series.CircularBuffer, true),
		cfg:       cfg,
		nodeProbe: services.GetCPUUsage,
		procProbe: services.SampleWatchedProcess,
	}
}

func (o *CPUObserver) Observe(ctx context.Context) error {
	if o.cfg.Node.Enabled() {
		status, err := o.nodeProbe(ctx)
		if err != nil {
			return fmt.Errorf("node cpu: %w", err)
		}
		o.buffer("node", models.MetricCPUPercent).Append(status.UsagePercent)
		if err := o.settle("node", models.MetricCPUPercent, o.cfg.Node); err != nil {
			return err
		}
	}

	if o.cfg.Process.Enabled() && len(o.cfg.WatchProcesses) > 0 {
		err := o.scan(ctx, o.cfg.WatchProcesses, models.MetricCPUPercent,
			func(ctx context.Context, name string) (float64, bool, error) {
				status, found, err := o.procProbe(ctx, name)
				if err != nil {
					return 0, false, Transient(err)
				}
				return status.CPUPercent, found, nil
			})
		if err != nil {
			return err
		}
		for _, name := range o.cfg.WatchProcesses {
			if err := o.settle(name, models.MetricCPUPercent, o.cfg.Process); err != nil {
				return err
			}
		}
	}

	return nil
}
