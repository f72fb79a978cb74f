package services

import (
	"context"
	"strings"

	"nodewarden/internal/models"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// SampleWatchedProcess probes every running process matching name and
// returns the aggregated reading. found is false when no pid matches
// this cycle; that is not an error, the caller just skips evaluation.
//
// Readings are summed across pids so a forking service (nginx workers,
// postgres backends) is judged as one entity.
func SampleWatchedProcess(ctx context.Context, name string) (models.ProcessStatus, bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return models.ProcessStatus{}, false, err
	}

	status := models.ProcessStatus{Name: name}
	for _, p := range procs {
		if ctx.Err() != nil {
			return models.ProcessStatus{}, false, ctx.Err()
		}

		pname, err := p.NameWithContext(ctx)
		if err != nil || !matchProcessName(pname, name) {
			continue
		}

		status.PIDs = append(status.PIDs, p.Pid)

		if cpuPercent, err := p.CPUPercentWithContext(ctx); err == nil {
			status.CPUPercent += cpuPercent
		} else {
			zap.S().Debugf("cpu sample for %s pid %d failed: %v", name, p.Pid, err)
		}

		if memInfo, err := p.MemoryInfoWithContext(ctx); err == nil && memInfo != nil {
			status.MemoryMB += float64(memInfo.RSS) / (1024 * 1024)
		} else if err != nil {
			zap.S().Debugf("memory sample for %s pid %d failed: %v", name, p.Pid, err)
		}

		if fds, err := p.NumFDsWithContext(ctx); err == nil {
			status.OpenFDs += int64(fds)
		} else {
			zap.S().Debugf("fd sample for %s pid %d failed: %v", name, p.Pid, err)
		}
	}

	return status, len(status.PIDs) > 0, nil
}

// GetProcessCount returns the total number of running processes
func GetProcessCount(ctx context.Context) (int, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return len(pids), nil
}

// matchProcessName compares a running process against a watched name.
// Kernel truncation means gopsutil can report a shortened name, so a
// prefix match on long names is accepted.
func matchProcessName(running, watched string) bool {
	if strings.EqualFold(running, watched) {
		return true
	}
	if len(watched) > 15 && strings.EqualFold(running, watched[:15]) {
		return true
	}
	return false
}
