package models

// CPUStatus represents node CPU usage
type CPUStatus struct {
	UsagePercent float64   `json:"usage_percent"`
	PerCore      []float64 `json:"per_core,omitempty"`
	CoreCount    int       `json:"core_count"`
}

// MemoryStatus represents node memory usage
type MemoryStatus struct {
	TotalGB      float64 `json:"total_gb"`
	UsedGB       float64 `json:"used_gb"`
	AvailableGB  float64 `json:"available_gb"`
	UsagePercent float64 `json:"usage_percent"`
}

// DiskStatus represents usage of one mounted filesystem
type DiskStatus struct {
	Path         string  `json:"path"`
	TotalGB      float64 `json:"total_gb"`
	UsedGB       float64 `json:"used_gb"`
	FreeGB       float64 `json:"free_gb"`
	UsagePercent float64 `json:"usage_percent"`
	Filesystem   string  `json:"filesystem"`
}

// NetworkStatus represents one interface's counters
type NetworkStatus struct {
	Interface   string `json:"interface"`
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
	ErrorsIn    uint64 `json:"errors_in"`
	ErrorsOut   uint64 `json:"errors_out"`
	DropsIn     uint64 `json:"drops_in"`
	DropsOut    uint64 `json:"drops_out"`
}

// ProcessStatus represents one watched process sample, aggregated across
// all pids sharing the same name
type ProcessStatus struct {
	Name       string  `json:"name"`
	PIDs       []int32 `json:"pids"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryMB   float64 `json:"memory_mb"`
	OpenFDs    int64   `json:"open_fds"`
}

// SystemStatus combines all node snapshots for the API
type SystemStatus struct {
	CPU     *CPUStatus      `json:"cpu"`
	Memory  *MemoryStatus   `json:"memory"`
	Disks   []DiskStatus    `json:"disks"`
	Network []NetworkStatus `json:"network"`
}

// OSInfo carries host platform detail for the informational report
type OSInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	KernelVersion   string `json:"kernel_version"`
	UptimeSeconds   uint64 `json:"uptime_seconds"`
	Processes       uint64 `json:"processes"`
}
