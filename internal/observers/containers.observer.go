package observers

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/docker"
	"go.uber.org/zap"

	"nodewarden/internal/config"
	"nodewarden/internal/health"
	"nodewarden/internal/models"
	"nodewarden/internal/series"
)

// ContainerStat is one running container's sampled state.
type ContainerStat struct {
	Name     string
	MemoryMB float64
}

// ContainersObserver watches container memory usage through the docker
// cgroup hierarchy, plus the count of running containers. A node
// without docker is simply quiet, not broken.
type ContainersObserver struct {
	watcher
	cfg   config.ContainersConfig
	probe func(ctx context.Context) ([]ContainerStat, error)
}

func NewContainersObserver(cfg config.ContainersConfig, sink health.Sink) *ContainersObserver {
	return &ContainersObserver{
		watcher: newWatcher("containers", cfg.Common, sink, series.CircularBuffer, true),
		cfg:     cfg,
		probe:   sampleContainers,
	}
}

func (o *ContainersObserver) Observe(ctx context.Context) error {
	if !o.cfg.MemoryMB.Enabled() && !o.cfg.Count.Enabled() {
		return nil
	}

	stats, err := o.probe(ctx)
	if err != nil {
		if errors.Is(err, docker.ErrDockerNotAvailable) || errors.Is(err, docker.ErrCgroupNotAvailable) {
			zap.S().Debugf("containers: docker not available on this node: %v", err)
			return nil
		}
		return fmt.Errorf("docker stats: %w", err)
	}

	if o.cfg.Count.Enabled() {
		o.buffer("node", models.MetricContainerCount).Append(float64(len(stats)))
		if err := o.settle("node", models.MetricContainerCount, o.cfg.Count); err != nil {
			return err
		}
	}

	if o.cfg.MemoryMB.Enabled() {
		for _, stat := range stats {
			if err := ctx.Err(); err != nil {
				return err
			}
			o.buffer(stat.Name, models.MetricContainerMB).Append(stat.MemoryMB)
			if err := o.settle(stat.Name, models.MetricContainerMB, o.cfg.MemoryMB); err != nil {
				return err
			}
		}
	}
	return nil
}

// sampleContainers reads every running container's memory usage from
// its cgroup.
func sampleContainers(ctx context.Context) ([]ContainerStat, error) {
	containers, err := docker.GetDockerStatWithContext(ctx)
	if err != nil {
		return nil, err
	}

	var stats []ContainerStat
	for _, container := range containers {
		if !container.Running {
			continue
		}

		name := container.Name
		if name == "" {
			name = container.ContainerID
		}

		memStat, err := docker.CgroupMemDockerWithContext(ctx, container.ContainerID)
		if err != nil {
			zap.S().Warnf("containers: skipping %s this cycle: %v", name, err)
			continue
		}

		stats = append(stats, ContainerStat{
			Name:     name,
			MemoryMB: float64(memStat.MemUsageInBytes) / (1024 * 1024),
		})
	}
	return stats, nil
}
