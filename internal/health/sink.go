package health

import "nodewarden/internal/models"

// Sink accepts finished health reports. Submit is idempotent for
// repeated identical reports; reports sharing a Key supersede each
// other, and the sink owns TTL-based expiry. Implementations must be
// safe for concurrent use since observers run independently.
type Sink interface {
	Submit(report models.HealthReport) error
}
