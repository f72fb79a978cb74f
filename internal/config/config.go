// Package config loads and validates the agent configuration. Bad
// threshold values fail here, before any observer cycle runs;
// they are never silently clamped.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/goccy/go-json"

	"nodewarden/internal/models"
)

// Duration wraps time.Duration so config files can say "60s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the whole agent configuration, parsed once at startup.
type Config struct {
	NodeName  string   `json:"node_name"`
	Listen    string   `json:"listen"`
	JWTSecret string   `json:"jwt_secret"`
	Observers Watchers `json:"observers"`
}

// Common holds the knobs every observer shares.
type Common struct {
	Enabled     bool     `json:"enabled"`
	Interval    Duration `json:"interval"`
	ReportTTL   Duration `json:"report_ttl"`
	BufferSize  int      `json:"buffer_size"`
	Parallelism int      `json:"parallelism"`
}

// Watchers groups the per-observer sections.
type Watchers struct {
	CPU          CPUConfig          `json:"cpu"`
	Memory       MemoryConfig       `json:"memory"`
	Disk         DiskConfig         `json:"disk"`
	Network      NetworkConfig      `json:"network"`
	Ports        PortsConfig        `json:"ports"`
	FDs          FDConfig           `json:"fds"`
	Certificates CertificatesConfig `json:"certificates"`
	Containers   ContainersConfig   `json:"containers"`
	OSInfo       OSInfoConfig       `json:"osinfo"`
}

type CPUConfig struct {
	Common
	Node           models.Threshold `json:"node"`
	Process        models.Threshold `json:"process"`
	WatchProcesses []string         `json:"watch_processes"`
}

type MemoryConfig struct {
	Common
	NodePercent    models.Threshold `json:"node_percent"`
	ProcessMB      models.Threshold `json:"process_mb"`
	WatchProcesses []string         `json:"watch_processes"`
}

type DiskConfig struct {
	Common
	UsagePercent models.Threshold `json:"usage_percent"`
	IncludePaths []string         `json:"include_paths"`
}

type NetworkConfig struct {
	Common
	Endpoints       []string         `json:"endpoints"`
	FailureSeverity models.Severity  `json:"failure_severity"`
	InterfaceErrors models.Threshold `json:"interface_errors"`
	DialTimeout     Duration         `json:"dial_timeout"`
}

type PortsConfig struct {
	Common
	Total     models.Threshold `json:"total"`
	Ephemeral models.Threshold `json:"ephemeral"`
}

type FDConfig struct {
	Common
	Node           models.Threshold `json:"node"`
	Process        models.Threshold `json:"process"`
	WatchProcesses []string         `json:"watch_processes"`
}

type CertificatesConfig struct {
	Common
	Paths          []string `json:"paths"`
	WarnWithinDays int      `json:"warn_within_days"`
}

type ContainersConfig struct {
	Common
	MemoryMB models.Threshold `json:"memory_mb"`
	Count    models.Threshold `json:"count"`
}

type OSInfoConfig struct {
	Common
}

// Load reads, parses and validates the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when a section is omitted.
func Default() *Config {
	common := Common{
		Enabled:    true,
		Interval:   Duration(60 * time.Second),
		ReportTTL:  Duration(2 * 60 * time.Second),
		BufferSize: 30,
	}
	host, _ := os.Hostname()
	return &Config{
		NodeName: host,
		Listen:   "localhost:8080",
		Observers: Watchers{
			CPU:          CPUConfig{Common: common, Node: models.Threshold{ErrorLimit: 90, WarningLimit: 70}},
			Memory:       MemoryConfig{Common: common, NodePercent: models.Threshold{ErrorLimit: 95, WarningLimit: 85}},
			Disk:         DiskConfig{Common: common, UsagePercent: models.Threshold{ErrorLimit: 95, WarningLimit: 85}},
			Network:      NetworkConfig{Common: common, FailureSeverity: models.SeverityWarning, DialTimeout: Duration(5 * time.Second)},
			Ports:        PortsConfig{Common: common},
			FDs:          FDConfig{Common: common},
			Certificates: CertificatesConfig{Common: common, WarnWithinDays: 42},
			Containers:   ContainersConfig{Common: common},
			OSInfo:       OSInfoConfig{Common: common},
		},
	}
}

// DefaultParallelism derives the worker pool size used when a section
// does not set one explicitly.
func DefaultParallelism() int {
	n := runtime.NumCPU() / 4
	if n < 1 {
		n = 1
	}
	return n
}

// Validate rejects configurations that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.NodeName == "" {
		return fmt.Errorf("node_name must not be empty")
	}
	if c.Listen == "" {
		return fmt.Errorf("listen must not be empty")
	}

	type section struct {
		name   string
		common Common
		pct    []models.Threshold
		any    []models.Threshold
	}
	sections := []section{
		{"cpu", c.Observers.CPU.Common, []models.Threshold{c.Observers.CPU.Node, c.Observers.CPU.Process}, nil},
		{"memory", c.Observers.Memory.Common, []models.Threshold{c.Observers.Memory.NodePercent}, []models.Threshold{c.Observers.Memory.ProcessMB}},
		{"disk", c.Observers.Disk.Common, []models.Threshold{c.Observers.Disk.UsagePercent}, nil},
		{"network", c.Observers.Network.Common, nil, []models.Threshold{c.Observers.Network.InterfaceErrors}},
		{"ports", c.Observers.Ports.Common, nil, []models.Threshold{c.Observers.Ports.Total, c.Observers.Ports.Ephemeral}},
		{"fds", c.Observers.FDs.Common, nil, []models.Threshold{c.Observers.FDs.Node, c.Observers.FDs.Process}},
		{"certificates", c.Observers.Certificates.Common, nil, nil},
		{"containers", c.Observers.Containers.Common, nil, []models.Threshold{c.Observers.Containers.MemoryMB, c.Observers.Containers.Count}},
		{"osinfo", c.Observers.OSInfo.Common, nil, nil},
	}

	for _, s := range sections {
		if !s.common.Enabled {
			continue
		}
		if s.common.Interval.Std() <= 0 {
			return fmt.Errorf("observers.%s: interval must be positive", s.name)
		}
		if s.common.ReportTTL.Std() <= 0 {
			return fmt.Errorf("observers.%s: report_ttl must be positive", s.name)
		}
		if s.common.BufferSize <= 0 {
			return fmt.Errorf("observers.%s: buffer_size must be positive", s.name)
		}
		if s.common.Parallelism < 0 {
			return fmt.Errorf("observers.%s: parallelism must not be negative", s.name)
		}
		for _, th := range s.pct {
			if err := validateThreshold(s.name, th, true); err != nil {
				return err
			}
		}
		for _, th := range s.any {
			if err := validateThreshold(s.name, th, false); err != nil {
				return err
			}
		}
	}

	if sev := c.Observers.Network.FailureSeverity; sev != "" &&
		sev != models.SeverityWarning && sev != models.SeverityError {
		return fmt.Errorf("observers.network: failure_severity must be warning or error, got %q", sev)
	}
	if c.Observers.Certificates.Enabled && c.Observers.Certificates.WarnWithinDays < 0 {
		return fmt.Errorf("observers.certificates: warn_within_days must not be negative")
	}
	return nil
}

func validateThreshold(name string, th models.Threshold, percent bool) error {
	if percent {
		if th.ErrorLimit > 100 {
			return fmt.Errorf("observers.%s: error limit %.2f exceeds 100%%", name, th.ErrorLimit)
		}
		if th.WarningLimit > 100 {
			return fmt.Errorf("observers.%s: warning limit %.2f exceeds 100%%", name, th.WarningLimit)
		}
	}
	if th.ErrorLimit > 0 && th.WarningLimit > 0 && th.WarningLimit > th.ErrorLimit {
		return fmt.Errorf("observers.%s: warning limit %.2f above error limit %.2f", name, th.WarningLimit, th.ErrorLimit)
	}
	return nil
}
