// Package health implements the threshold evaluation and health
// transition logic every observer feeds its sample series through.
package health

import (
	"nodewarden/internal/models"
	"nodewarden/internal/series"
)

// Evaluate classifies a series' average against the configured limits.
// The second return is false when evaluation does not apply: either both
// limits are disabled (the metric is switched off) or the series holds
// no samples (the entity was absent this cycle). In both cases the state
// machine must not be invoked and any active alarm stays as it is.
//
// The average governs, not the peak: a single spiked sample inside an
// otherwise quiet window does not cross a threshold.
func Evaluate[T series.Number](s *series.Series[T], th models.Threshold) (models.Severity, bool) {
	if !th.Enabled() {
		return models.SeverityUnknown, false
	}

	st := s.Stats()
	if st.Count == 0 {
		return models.SeverityUnknown, false
	}

	return Classify(st.Average, th), true
}

// Classify applies the limit comparison to an already-computed value.
// All metrics in this domain are "higher is worse".
func Classify(value float64, th models.Threshold) models.Severity {
	switch {
	case th.ErrorLimit > 0 && value > th.ErrorLimit:
		return models.SeverityError
	case th.WarningLimit > 0 && value > th.WarningLimit:
		return models.SeverityWarning
	default:
		return models.SeverityOk
	}
}
