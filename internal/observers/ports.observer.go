package observers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	gopsnet "github.com/shirou/gopsutil/v3/net"

	"nodewarden/internal/config"
	"nodewarden/internal/health"
	"nodewarden/internal/models"
	"nodewarden/internal/series"
	"nodewarden/internal/services"
)

// default Linux ephemeral range, used when the kernel setting is
// unreadable
const (
	defaultEphemeralLow  = 32768
	defaultEphemeralHigh = 60999
)

// PortsObserver counts active TCP connections and how many of them hold
// a local port inside the kernel's ephemeral range. Port counts are
// point-in-time facts: the buffer is rebuilt every cycle.
type PortsObserver struct {
	watcher
	cfg            config.PortsConfig
	connProbe      func(ctx context.Context) ([]gopsnet.ConnectionStat, error)
	ephemeralRange func() (uint32, uint32)
}

func NewPortsObserver(cfg config.PortsConfig, sink health.Sink) *PortsObserver {
	return &PortsObserver{
		watcher:        newWatcher("ports", cfg.Common, sink, series.FixedWindow, false),
		cfg:            cfg,
		connProbe:      services.GetTCPConnections,
		ephemeralRange: readEphemeralRange,
	}
}

func (o *PortsObserver) Observe(ctx context.Context) error {
	if !o.cfg.Total.Enabled() && !o.cfg.Ephemeral.Enabled() {
		return nil
	}

	conns, err := o.connProbe(ctx)
	if err != nil {
		return fmt.Errorf("tcp connections: %w", err)
	}

	low, high := o.ephemeralRange()
	total := 0
	ephemeral := 0
	for _, conn := range conns {
		if conn.Status == "TIME_WAIT" {
			continue
		}
		total++
		if conn.Laddr.Port >= low && conn.Laddr.Port <= high {
			ephemeral++
		}
	}

	if o.cfg.Total.Enabled() {
		o.buffer("node", models.MetricActivePorts).Append(float64(total))
		if err := o.settle("node", models.MetricActivePorts, o.cfg.Total); err != nil {
			return err
		}
	}
	if o.cfg.Ephemeral.Enabled() {
		o.buffer("node", models.MetricEphemeralPorts).Append(float64(ephemeral))
		if err := o.settle("node", models.MetricEphemeralPorts, o.cfg.Ephemeral); err != nil {
			return err
		}
	}
	return nil
}

// readEphemeralRange reads the kernel's local port range, falling back
// to the Linux default when the proc file is unavailable.
func readEphemeralRange() (uint32, uint32) {
	data, err := os.ReadFile("/proc/sys/net/ipv4/ip_local_port_range")
	if err != nil {
		return defaultEphemeralLow, defaultEphemeralHigh
	}
	fields := strings.Fields(string(data))
	if len(fields) != 2 {
		return defaultEphemeralLow, defaultEphemeralHigh
	}
	low, err1 := strconv.ParseUint(fields[0], 10, 32)
	high, err2 := strconv.ParseUint(fields[1], 10, 32)
	if err1 != nil || err2 != nil || low > high {
		return defaultEphemeralLow, defaultEphemeralHigh
	}
	return uint32(low), uint32(high)
}
