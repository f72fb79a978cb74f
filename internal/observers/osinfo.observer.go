package observers

import (
	"context"
	"fmt"
	"time"

	"nodewarden/internal/config"
	"nodewarden/internal/health"
	"nodewarden/internal/models"
	"nodewarden/internal/series"
	"nodewarden/internal/services"
)

// OSInfoObserver publishes a standing informational report with host
// platform details. It never alarms; the report's TTL keeps it fresh
// while the agent lives.
type OSInfoObserver struct {
	watcher
	probe     func(ctx context.Context) (*models.OSInfo, error)
	procCount func(ctx context.Context) (int, error)
}

func NewOSInfoObserver(cfg config.OSInfoConfig, sink health.Sink) *OSInfoObserver {
	return &OSInfoObserver{
		watcher:   newWatcher("osinfo", cfg.Common, sink, series.FixedWindow, false),
		probe:     services.GetOSInfo,
		procCount: services.GetProcessCount,
	}
}

func (o *OSInfoObserver) Observe(ctx context.Context) error {
	info, err := o.probe(ctx)
	if err != nil {
		return fmt.Errorf("host info: %w", err)
	}

	// Not every platform fills the process count in the host snapshot.
	if info.Processes == 0 {
		if n, err := o.procCount(ctx); err == nil {
			info.Processes = uint64(n)
		}
	}

	uptime := (time.Duration(info.UptimeSeconds) * time.Second).Round(time.Minute)
	message := fmt.Sprintf("%s %s %s (kernel %s), up %s, %d processes",
		info.Platform, info.PlatformVersion, info.OS, info.KernelVersion, uptime, info.Processes)

	report := o.tracker.Info(
		health.EntityKey{Entity: info.Hostname, Metric: models.MetricOSInfo},
		message,
		o.ttl,
	)
	return o.sink.Submit(report)
}
