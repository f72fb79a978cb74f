package models

// Severity is the health classification attached to a report.
type Severity string

const (
	SeverityOk      Severity = "ok"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityUnknown Severity = "unknown"
)

// rank orders severities from benign to critical.
func (s Severity) rank() int {
	switch s {
	case SeverityOk:
		return 0
	case SeverityWarning:
		return 2
	case SeverityError:
		return 3
	default:
		return 1
	}
}

// WorseThan reports whether s is a more critical classification than other.
func (s Severity) WorseThan(other Severity) bool {
	return s.rank() > other.rank()
}

// Alerting reports whether s represents an active problem.
func (s Severity) Alerting() bool {
	return s == SeverityWarning || s == SeverityError
}
