package services

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodewarden/internal/metrics"
	"nodewarden/internal/models"
)

func alertReport(entity string, sev models.Severity, ttl time.Duration, at time.Time) models.HealthReport {
	return models.HealthReport{
		EntityID:   entity,
		Metric:     models.MetricCPUPercent,
		Severity:   sev,
		Message:    "test",
		TTL:        ttl,
		Source:     "cpu",
		ObservedAt: at,
	}
}

func TestSubmitAndSummary(t *testing.T) {
	rs := NewReportStore("node01")
	now := time.Now()

	require.NoError(t, rs.Submit(alertReport("fabric", models.SeverityWarning, time.Minute, now)))
	require.NoError(t, rs.Submit(alertReport("nginx", models.SeverityError, time.Minute, now)))

	summary := rs.Summary()
	assert.Equal(t, "node01", summary.Node)
	assert.Equal(t, models.SeverityError, summary.Severity)
	assert.True(t, summary.HasActiveAlarm)
	assert.Equal(t, 1, summary.Warnings)
	assert.Equal(t, 1, summary.Errors)
	assert.Len(t, rs.Active(), 2)
}

func TestSameKeySupersedes(t *testing.T) {
	rs := NewReportStore("node01")
	now := time.Now()

	require.NoError(t, rs.Submit(alertReport("fabric", models.SeverityWarning, time.Minute, now)))
	require.NoError(t, rs.Submit(alertReport("fabric", models.SeverityError, time.Minute, now.Add(time.Second))))

	active := rs.Active()
	require.Len(t, active, 1)
	assert.Equal(t, models.SeverityError, active[0].Severity)
}

func TestClearingOkDeletesImmediately(t *testing.T) {
	rs := NewReportStore("node01")
	now := time.Now()

	require.NoError(t, rs.Submit(alertReport("fabric", models.SeverityWarning, time.Minute, now)))
	require.NoError(t, rs.Submit(alertReport("fabric", models.SeverityOk, 0, now.Add(time.Second))))

	assert.Empty(t, rs.Active())
	assert.False(t, rs.Summary().HasActiveAlarm)
}

func TestTTLExpiryPrunesLazily(t *testing.T) {
	rs := NewReportStore("node01")
	base := time.Unix(1700000000, 0)
	rs.now = func() time.Time { return base }

	require.NoError(t, rs.Submit(alertReport("fabric", models.SeverityWarning, time.Minute, base)))
	assert.Len(t, rs.Active(), 1)

	rs.now = func() time.Time { return base.Add(2 * time.Minute) }
	assert.Empty(t, rs.Active())
	assert.Equal(t, models.SeverityOk, rs.Summary().Severity)
}

func TestSustainRefreshExtendsExpiry(t *testing.T) {
	rs := NewReportStore("node01")
	base := time.Unix(1700000000, 0)
	rs.now = func() time.Time { return base }

	require.NoError(t, rs.Submit(alertReport("fabric", models.SeverityWarning, time.Minute, base)))
	// Re-emit 50s later, as the sustain transition does.
	require.NoError(t, rs.Submit(alertReport("fabric", models.SeverityWarning, time.Minute, base.Add(50*time.Second))))

	rs.now = func() time.Time { return base.Add(100 * time.Second) }
	assert.Len(t, rs.Active(), 1, "refreshed alarm must outlive the original TTL")
}

func TestActiveAlarmsGaugeIgnoresExpired(t *testing.T) {
	rs := NewReportStore("node01")
	base := time.Unix(1700000000, 0)
	rs.now = func() time.Time { return base }

	require.NoError(t, rs.Submit(alertReport("fabric", models.SeverityWarning, time.Minute, base)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ActiveAlarms))

	// The warning's TTL has lapsed by the time the next report lands;
	// the gauge must not keep counting it.
	rs.now = func() time.Time { return base.Add(2 * time.Minute) }
	info := alertReport("host", models.SeverityOk, time.Minute, base.Add(2*time.Minute))
	require.NoError(t, rs.Submit(info))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.ActiveAlarms))
}

func TestOnSubmitCallback(t *testing.T) {
	rs := NewReportStore("node01")
	var got []models.HealthReport
	rs.OnSubmit(func(r models.HealthReport) { got = append(got, r) })

	require.NoError(t, rs.Submit(alertReport("fabric", models.SeverityWarning, time.Minute, time.Now())))
	require.Len(t, got, 1)
	assert.Equal(t, "fabric", got[0].EntityID)
}
