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

// DiskObserver watches space usage per mounted filesystem. Disk usage
// moves slowly, so each cycle stands alone: buffers are wiped every
// round and one reading per mount decides the severity.
type DiskObserver struct {
	watcher
	cfg        config.DiskConfig
	listMounts func(ctx context.Context) ([]models.DiskStatus, error)
	usageProbe func(ctx context.Context, path string) (*models.DiskStatus, error)
}

func NewDiskObserver(cfg config.DiskConfig, sink health.Sink) *DiskObserver {
	return &DiskObserver{
		watcher:    newWatcher("disk", cfg.Common, sink, series.FixedWindow, false),
		cfg:        cfg,
		listMounts: services.GetAllDiskUsage,
		usageProbe: services.GetDiskUsage,
	}
}

func (o *DiskObserver) Observe(ctx context.Context) error {
	if !o.cfg.UsagePercent.Enabled() {
		return nil
	}

	mounts := o.cfg.IncludePaths
	if len(mounts) == 0 {
		statuses, err := o.listMounts(ctx)
		if err != nil {
			return fmt.Errorf("list mounts: %w", err)
		}
		for _, status := range statuses {
			mounts = append(mounts, status.Path)
		}
	}

	err := o.scan(ctx, mounts, models.MetricDiskUsagePercent,
		func(ctx context.Context, path string) (float64, bool, error) {
			status, err := o.usageProbe(ctx, path)
			if err != nil {
				return 0, false, Transient(err)
			}
			return status.UsagePercent, true, nil
		})
	if err != nil {
		return err
	}

	for _, path := range mounts {
		if err := o.settle(path, models.MetricDiskUsagePercent, o.cfg.UsagePercent); err != nil {
			return err
		}
	}
	return nil
}
