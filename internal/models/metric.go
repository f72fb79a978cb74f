package models

// MetricKind identifies which resource a sample series measures.
// It drives unit formatting and message text, not storage.
type MetricKind string

const (
	MetricCPUPercent       MetricKind = "cpu_percent"
	MetricMemoryPercent    MetricKind = "memory_percent"
	MetricMemoryMB         MetricKind = "memory_mb"
	MetricDiskUsagePercent MetricKind = "disk_usage_percent"
	MetricActivePorts      MetricKind = "active_ports"
	MetricEphemeralPorts   MetricKind = "ephemeral_ports"
	MetricFileDescriptors  MetricKind = "open_file_descriptors"
	MetricEndpointDown     MetricKind = "endpoint_unreachable"
	MetricNetworkErrors    MetricKind = "network_errors"
	MetricCertExpiry       MetricKind = "certificate_expiry"
	MetricContainerMB      MetricKind = "container_memory_mb"
	MetricContainerCount   MetricKind = "container_count"
	MetricOSInfo           MetricKind = "os_info"
)

// Unit returns the display unit for the metric, empty for plain counts.
func (k MetricKind) Unit() string {
	switch k {
	case MetricCPUPercent, MetricMemoryPercent, MetricDiskUsagePercent:
		return "%"
	case MetricMemoryMB, MetricContainerMB:
		return " MB"
	case MetricCertExpiry:
		return " days"
	default:
		return ""
	}
}

// Label returns a human-readable metric name for report messages.
func (k MetricKind) Label() string {
	switch k {
	case MetricCPUPercent:
		return "CPU usage"
	case MetricMemoryPercent:
		return "memory usage"
	case MetricMemoryMB:
		return "working set"
	case MetricDiskUsagePercent:
		return "disk space usage"
	case MetricActivePorts:
		return "active TCP ports"
	case MetricEphemeralPorts:
		return "ephemeral ports in use"
	case MetricFileDescriptors:
		return "open file descriptors"
	case MetricEndpointDown:
		return "endpoint connectivity"
	case MetricNetworkErrors:
		return "network interface errors"
	case MetricCertExpiry:
		return "certificate expiry"
	case MetricContainerMB:
		return "container memory usage"
	case MetricContainerCount:
		return "running containers"
	case MetricOSInfo:
		return "operating system"
	default:
		return string(k)
	}
}
