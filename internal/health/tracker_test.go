package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodewarden/internal/models"
)

var cpuKey = EntityKey{Entity: "fabric", Metric: models.MetricCPUPercent}

func warnDetail() Detail {
	return Detail{Observed: 77.75, Peak: 100, Threshold: models.Threshold{ErrorLimit: 90, WarningLimit: 70}}
}

func TestHealthyEntityEmitsNothing(t *testing.T) {
	tr := NewTracker("cpu", time.Minute)

	rep, active := tr.Transition(cpuKey, models.SeverityOk, warnDetail())
	assert.Nil(t, rep)
	assert.False(t, active)
	assert.False(t, tr.HasActiveAlarm())
}

func TestRaiseWarning(t *testing.T) {
	tr := NewTracker("cpu", time.Minute)

	rep, active := tr.Transition(cpuKey, models.SeverityWarning, warnDetail())
	require.NotNil(t, rep)
	assert.True(t, active)
	assert.Equal(t, models.SeverityWarning, rep.Severity)
	assert.Equal(t, "fabric", rep.EntityID)
	assert.Equal(t, time.Minute, rep.TTL)
	assert.Contains(t, rep.Message, "warning limit 70.00")
	assert.Contains(t, rep.Message, "77.75")
	assert.True(t, tr.HasActiveAlarm())
}

func TestSustainRefreshesTTL(t *testing.T) {
	tr := NewTracker("cpu", time.Minute)

	first, _ := tr.Transition(cpuKey, models.SeverityWarning, warnDetail())
	require.NotNil(t, first)

	// The condition persists: the same severity must be re-emitted so
	// the sink's TTL is renewed, not left to expire.
	second, active := tr.Transition(cpuKey, models.SeverityWarning, warnDetail())
	require.NotNil(t, second)
	assert.True(t, active)
	assert.Equal(t, models.SeverityWarning, second.Severity)
	assert.Equal(t, time.Minute, second.TTL)
	assert.Equal(t, first.Key(), second.Key())
	assert.Equal(t, 1, tr.ActiveCount())
}

func TestEscalateWarningToError(t *testing.T) {
	tr := NewTracker("cpu", time.Minute)

	_, _ = tr.Transition(cpuKey, models.SeverityWarning, warnDetail())

	d := Detail{Observed: 95, Peak: 100, Threshold: models.Threshold{ErrorLimit: 90, WarningLimit: 70}}
	rep, active := tr.Transition(cpuKey, models.SeverityError, d)
	require.NotNil(t, rep)
	assert.True(t, active)
	assert.Equal(t, models.SeverityError, rep.Severity)
	assert.Contains(t, rep.Message, "error limit 90.00")
}

func TestDeEscalateErrorToWarning(t *testing.T) {
	tr := NewTracker("cpu", time.Minute)

	_, _ = tr.Transition(cpuKey, models.SeverityError, warnDetail())

	rep, active := tr.Transition(cpuKey, models.SeverityWarning, warnDetail())
	require.NotNil(t, rep)
	assert.True(t, active)
	assert.Equal(t, models.SeverityWarning, rep.Severity)
}

func TestClearEmitsSingleOkWithZeroTTL(t *testing.T) {
	tr := NewTracker("cpu", time.Minute)

	_, _ = tr.Transition(cpuKey, models.SeverityWarning, warnDetail())

	rep, active := tr.Transition(cpuKey, models.SeverityOk, warnDetail())
	require.NotNil(t, rep)
	assert.False(t, active)
	assert.Equal(t, models.SeverityOk, rep.Severity)
	assert.Equal(t, time.Duration(0), rep.TTL)
	assert.Contains(t, rep.Message, "back to healthy")
	assert.False(t, tr.HasActiveAlarm())

	// Still healthy next cycle: no second clearing report.
	rep, active = tr.Transition(cpuKey, models.SeverityOk, warnDetail())
	assert.Nil(t, rep)
	assert.False(t, active)
}

func TestAbsentEntityKeepsAlarm(t *testing.T) {
	tr := NewTracker("cpu", time.Minute)

	_, _ = tr.Transition(cpuKey, models.SeverityWarning, warnDetail())

	// The entity vanished this cycle: evaluation is skipped, Transition
	// is never called, the alarm must survive untouched.
	assert.True(t, tr.HasActiveAlarm())
	assert.Equal(t, 1, tr.ActiveCount())
}

func TestActiveCountAcrossEntities(t *testing.T) {
	tr := NewTracker("mem", time.Minute)
	d := Detail{Observed: 900, Peak: 950, Threshold: models.Threshold{ErrorLimit: 1000, WarningLimit: 800}}

	a := EntityKey{Entity: "nginx", Metric: models.MetricMemoryMB}
	b := EntityKey{Entity: "redis", Metric: models.MetricMemoryMB}

	_, _ = tr.Transition(a, models.SeverityWarning, d)
	_, _ = tr.Transition(b, models.SeverityError, d)
	assert.Equal(t, 2, tr.ActiveCount())

	_, _ = tr.Transition(a, models.SeverityOk, d)
	assert.Equal(t, 1, tr.ActiveCount())

	tr.Forget(b)
	assert.False(t, tr.HasActiveAlarm())
}

func TestInfoReport(t *testing.T) {
	tr := NewTracker("osinfo", time.Minute)

	rep := tr.Info(EntityKey{Entity: "node01", Metric: models.MetricOSInfo}, "Linux 6.1, up 4d", 2*time.Minute)
	assert.Equal(t, models.SeverityOk, rep.Severity)
	assert.Equal(t, 2*time.Minute, rep.TTL)
	assert.Equal(t, "osinfo", rep.Source)
	assert.False(t, tr.HasActiveAlarm())
}
