package services

import (
	"context"
	"fmt"

	"nodewarden/internal/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"
)

const GB = 1024 * 1024 * 1024

// GetCPUUsage returns node CPU usage percentage
func GetCPUUsage(ctx context.Context) (*models.CPUStatus, error) {
	percentage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	if len(percentage) == 0 {
		return nil, fmt.Errorf("no cpu usage reported")
	}

	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		zap.S().Warnf("could not get per-core CPU usage: %v", err)
		perCore = nil
	}

	coreCount, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		zap.S().Warnf("could not get CPU core count: %v", err)
		coreCount = 0
	}

	return &models.CPUStatus{
		UsagePercent: percentage[0],
		PerCore:      perCore,
		CoreCount:    coreCount,
	}, nil
}

// GetMemoryUsage returns node memory usage information
func GetMemoryUsage(ctx context.Context) (*models.MemoryStatus, error) {
	virtualMemory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return &models.MemoryStatus{
		TotalGB:      float64(virtualMemory.Total) / GB,
		UsedGB:       float64(virtualMemory.Used) / GB,
		AvailableGB:  float64(virtualMemory.Available) / GB,
		UsagePercent: virtualMemory.UsedPercent,
	}, nil
}

// GetDiskUsage returns disk usage for a specific mount point
func GetDiskUsage(ctx context.Context, path string) (*models.DiskStatus, error) {
	if path == "" {
		path = "/"
	}

	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, err
	}

	return &models.DiskStatus{
		Path:         path,
		TotalGB:      float64(usage.Total) / GB,
		UsedGB:       float64(usage.Used) / GB,
		FreeGB:       float64(usage.Free) / GB,
		UsagePercent: usage.UsedPercent,
		Filesystem:   usage.Fstype,
	}, nil
}

// GetAllDiskUsage returns disk usage for all mounted partitions
func GetAllDiskUsage(ctx context.Context) ([]models.DiskStatus, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	var statuses []models.DiskStatus
	for _, partition := range partitions {
		usage, err := disk.UsageWithContext(ctx, partition.Mountpoint)
		if err != nil {
			zap.S().Warnf("could not get disk usage for %s: %v", partition.Mountpoint, err)
			continue
		}

		statuses = append(statuses, models.DiskStatus{
			Path:         partition.Mountpoint,
			TotalGB:      float64(usage.Total) / GB,
			UsedGB:       float64(usage.Used) / GB,
			FreeGB:       float64(usage.Free) / GB,
			UsagePercent: usage.UsedPercent,
			Filesystem:   partition.Fstype,
		})
	}

	return statuses, nil
}

// GetNetworkUsage returns counters for all network interfaces
func GetNetworkUsage(ctx context.Context) ([]models.NetworkStatus, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, err
	}

	var statuses []models.NetworkStatus
	for _, counter := range counters {
		statuses = append(statuses, models.NetworkStatus{
			Interface:   counter.Name,
			BytesSent:   counter.BytesSent,
			BytesRecv:   counter.BytesRecv,
			PacketsSent: counter.PacketsSent,
			PacketsRecv: counter.PacketsRecv,
			ErrorsIn:    counter.Errin,
			ErrorsOut:   counter.Errout,
			DropsIn:     counter.Dropin,
			DropsOut:    counter.Dropout,
		})
	}

	return statuses, nil
}

// GetTCPConnections returns all TCP connections on the node
func GetTCPConnections(ctx context.Context) ([]net.ConnectionStat, error) {
	return net.ConnectionsWithContext(ctx, "tcp")
}

// GetOSInfo returns host platform details
func GetOSInfo(ctx context.Context) (*models.OSInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return &models.OSInfo{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		UptimeSeconds:   info.Uptime,
		Processes:       info.Procs,
	}, nil
}

// GetSystemStatus returns the complete node snapshot for the API
func GetSystemStatus(ctx context.Context) (*models.SystemStatus, error) {
	cpuStatus, err := GetCPUUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get CPU usage: %w", err)
	}

	memStatus, err := GetMemoryUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory usage: %w", err)
	}

	diskStatus, err := GetAllDiskUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk usage: %w", err)
	}

	networkStatus, err := GetNetworkUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get network usage: %w", err)
	}

	return &models.SystemStatus{
		CPU:     cpuStatus,
		Memory:  memStatus,
		Disks:   diskStatus,
		Network: networkStatus,
	}, nil
}
