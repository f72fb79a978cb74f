package observers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"nodewarden/internal/config"
	"nodewarden/internal/health"
	"nodewarden/internal/models"
	"nodewarden/internal/series"
	"nodewarden/internal/services"
)

// FDObserver watches open file descriptors: the node-wide allocation
// from the kernel plus per-watched-process counts. The watched-process
// probes run on the worker pool, so the cross-entity total is a shared
// counter and must be accumulated atomically.
type FDObserver struct {
	watcher
	cfg       config.FDConfig
	nodeProbe func() (float64, error)
	procProbe func(ctx context.Context, name string) (models.ProcessStatus, bool, error)
}

func NewFDObserver(cfg config.FDConfig, sink health.Sink) *FDObserver {
	return &FDObserver{
		watcher:   newWatcher("fds", cfg.Common, sink, series.CircularBuffer, true),
		cfg:       cfg,
		nodeProbe: readAllocatedFDs,
		procProbe: services.SampleWatchedProcess,
	}
}

func (o *FDObserver) Observe(ctx context.Context) error {
	if o.cfg.Node.Enabled() {
		allocated, err := o.nodeProbe()
		if err != nil {
			// Not every platform exposes the kernel table; skip quietly.
			return o.observeProcesses(ctx)
		}
		o.buffer("node", models.MetricFileDescriptors).Append(allocated)
		if err := o.settle("node", models.MetricFileDescriptors, o.cfg.Node); err != nil {
			return err
		}
	}

	return o.observeProcesses(ctx)
}

func (o *FDObserver) observeProcesses(ctx context.Context) error {
	if !o.cfg.Process.Enabled() || len(o.cfg.WatchProcesses) == 0 {
		return nil
	}

	// Multiple workers add into the cycle total while each owns its own
	// per-process series.
	var watchedTotal atomic.Int64
	var watchedFound atomic.Int64

	err := o.scan(ctx, o.cfg.WatchProcesses, models.MetricFileDescriptors,
		func(ctx context.Context, name string) (float64, bool, error) {
			status, found, err := o.procProbe(ctx, name)
			if err != nil {
				return 0, false, Transient(err)
			}
			if found {
				watchedTotal.Add(status.OpenFDs)
				watchedFound.Add(1)
			}
			return float64(status.OpenFDs), found, nil
		})
	if err != nil {
		return err
	}

	for _, name := range o.cfg.WatchProcesses {
		if err := o.settle(name, models.MetricFileDescriptors, o.cfg.Process); err != nil {
			return err
		}
	}

	// No process observed means no data for the aggregate either; a
	// zero sample here would read absence as health.
	if watchedFound.Load() > 0 {
		o.buffer("watched", models.MetricFileDescriptors).Append(float64(watchedTotal.Load()))
	}
	return o.settle("watched", models.MetricFileDescriptors, o.cfg.Process)
}

// readAllocatedFDs reads the kernel's allocated descriptor count, the
// first field of /proc/sys/fs/file-nr.
func readAllocatedFDs() (float64, error) {
	data, err := os.ReadFile("/proc/sys/fs/file-nr")
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 1 {
		return 0, fmt.Errorf("unexpected file-nr format")
	}
	allocated, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, err
	}
	return allocated, nil
}
