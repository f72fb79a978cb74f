package services

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"nodewarden/internal/metrics"
	"nodewarden/internal/models"
)

// storedReport pairs a report with its computed expiry.
type storedReport struct {
	report    models.HealthReport
	expiresAt time.Time // zero means no expiry
}

// ReportStore is the node-local health sink. Reports with the same key
// supersede each other; alerting reports expire after their TTL if the
// owning observer stops refreshing them; clearing Ok reports (zero TTL)
// delete the stored alarm immediately. Expired entries are pruned lazily
// on read, the same way the snapshot cache validates its TTL on access.
type ReportStore struct {
	mu       sync.RWMutex
	node     string
	reports  map[string]storedReport
	now      func() time.Time
	onSubmit func(models.HealthReport)
}

var reportStore *ReportStore

// InitReportStore creates the process-wide report store.
func InitReportStore(node string) *ReportStore {
	reportStore = NewReportStore(node)
	return reportStore
}

// NewReportStore creates a standalone store, used directly in tests.
func NewReportStore(node string) *ReportStore {
	return &ReportStore{
		node:    node,
		reports: make(map[string]storedReport),
		now:     time.Now,
	}
}

// GetReportStore returns the initialized store.
func GetReportStore() *ReportStore {
	return reportStore
}

// OnSubmit registers a callback invoked for every accepted report,
// outside the store's lock. Used to feed the websocket hub.
func (rs *ReportStore) OnSubmit(fn func(models.HealthReport)) {
	rs.mu.Lock()
	rs.onSubmit = fn
	rs.mu.Unlock()
}

// Submit implements health.Sink.
func (rs *ReportStore) Submit(report models.HealthReport) error {
	key := report.Key()

	rs.mu.Lock()
	if report.Severity == models.SeverityOk && report.TTL == 0 {
		// Clearing report: drop the superseded alarm right away instead
		// of waiting for its natural expiry.
		delete(rs.reports, key)
	} else {
		stored := storedReport{report: report}
		if report.TTL > 0 {
			stored.expiresAt = report.ObservedAt.Add(report.TTL)
		}
		rs.reports[key] = stored
	}
	notify := rs.onSubmit
	rs.pruneLocked()
	active := rs.activeLocked()
	rs.mu.Unlock()

	metrics.ReportsTotal.WithLabelValues(report.Source, string(report.Severity)).Inc()
	metrics.ActiveAlarms.Set(float64(active))

	switch report.Severity {
	case models.SeverityError:
		zap.S().Errorw("health report", "source", report.Source, "entity", report.EntityID, "message", report.Message)
	case models.SeverityWarning:
		zap.S().Warnw("health report", "source", report.Source, "entity", report.EntityID, "message", report.Message)
	default:
		zap.S().Infow("health report", "source", report.Source, "entity", report.EntityID, "message", report.Message)
	}

	if notify != nil {
		notify(report)
	}
	return nil
}

// Active returns the current live reports, newest first.
func (rs *ReportStore) Active() []models.HealthReport {
	rs.mu.Lock()
	rs.pruneLocked()
	out := make([]models.HealthReport, 0, len(rs.reports))
	for _, stored := range rs.reports {
		out = append(out, stored.report)
	}
	rs.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ObservedAt.After(out[j].ObservedAt)
	})
	return out
}

// Summary aggregates the store into the node health summary.
func (rs *ReportStore) Summary() models.HealthSummary {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.pruneLocked()

	summary := models.HealthSummary{
		Node:        rs.node,
		Severity:    models.SeverityOk,
		Reports:     len(rs.reports),
		GeneratedAt: rs.now(),
	}
	for _, stored := range rs.reports {
		switch stored.report.Severity {
		case models.SeverityWarning:
			summary.Warnings++
		case models.SeverityError:
			summary.Errors++
		}
		if stored.report.Severity.WorseThan(summary.Severity) {
			summary.Severity = stored.report.Severity
		}
	}
	summary.HasActiveAlarm = summary.Warnings+summary.Errors > 0
	return summary
}

// pruneLocked removes expired entries. Caller holds the write lock.
func (rs *ReportStore) pruneLocked() {
	now := rs.now()
	for key, stored := range rs.reports {
		if !stored.expiresAt.IsZero() && now.After(stored.expiresAt) {
			delete(rs.reports, key)
		}
	}
}

// activeLocked counts live alerting reports. Caller holds the lock.
func (rs *ReportStore) activeLocked() int {
	n := 0
	for _, stored := range rs.reports {
		if stored.report.Severity.Alerting() {
			n++
		}
	}
	return n
}
