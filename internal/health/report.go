package health

import (
	"fmt"

	"nodewarden/internal/models"
)

// Message renders the human-readable report text. Alerting messages name
// the metric, the observed average and peak, and the crossed limit;
// clearing messages just say the entity is back to healthy.
func Message(key EntityKey, sev models.Severity, d Detail) string {
	unit := key.Metric.Unit()
	label := key.Metric.Label()

	switch sev {
	case models.SeverityError:
		return fmt.Sprintf("%s: %s at %.2f%s (peak %.2f%s) exceeds error limit %.2f%s",
			key.Entity, label, d.Observed, unit, d.Peak, unit, d.Threshold.ErrorLimit, unit)
	case models.SeverityWarning:
		limit := d.Threshold.WarningLimit
		if limit <= 0 {
			limit = d.Threshold.ErrorLimit
		}
		return fmt.Sprintf("%s: %s at %.2f%s (peak %.2f%s) exceeds warning limit %.2f%s",
			key.Entity, label, d.Observed, unit, d.Peak, unit, limit, unit)
	default:
		return fmt.Sprintf("%s: %s back to healthy", key.Entity, label)
	}
}
