package models

// Threshold holds the limits a series' average is compared against.
// A limit of zero or below means that limit is disabled; when both
// limits are disabled the metric is not evaluated at all.
type Threshold struct {
	ErrorLimit   float64 `json:"error_limit"`
	WarningLimit float64 `json:"warning_limit"`
}

// Enabled reports whether at least one limit is active.
func (t Threshold) Enabled() bool {
	return t.ErrorLimit > 0 || t.WarningLimit > 0
}
