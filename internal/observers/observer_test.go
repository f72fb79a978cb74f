package observers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodewarden/internal/config"
	"nodewarden/internal/health"
	"nodewarden/internal/models"
)

// fakeSink captures submitted reports. Workers never submit directly so
// a mutex is strictly unnecessary, but it keeps the fake safe if that
// ever changes.
type fakeSink struct {
	mu      sync.Mutex
	reports []models.HealthReport
}

func (f *fakeSink) Submit(report models.HealthReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeSink) all() []models.HealthReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.HealthReport(nil), f.reports...)
}

func (f *fakeSink) last() models.HealthReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports[len(f.reports)-1]
}

func (f *fakeSink) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = nil
}

func testCommon(bufferSize int) config.Common {
	return config.Common{
		Enabled:     true,
		Interval:    config.Duration(time.Second),
		ReportTTL:   config.Duration(time.Minute),
		BufferSize:  bufferSize,
		Parallelism: 2,
	}
}

func TestCPUObserverRaisesAndClears(t *testing.T) {
	sink := &fakeSink{}
	cfg := config.CPUConfig{
		Common: testCommon(4),
		Node:   models.Threshold{ErrorLimit: 90, WarningLimit: 80},
	}
	o := NewCPUObserver(cfg, sink)

	usage := 95.0
	o.nodeProbe = func(ctx context.Context) (*models.CPUStatus, error) {
		return &models.CPUStatus{UsagePercent: usage}, nil
	}

	require.NoError(t, o.Observe(context.Background()))
	reports := sink.all()
	require.Len(t, reports, 1)
	assert.Equal(t, models.SeverityError, reports[0].Severity)
	assert.Equal(t, "node", reports[0].EntityID)
	assert.Equal(t, "cpu", reports[0].Source)
	assert.Equal(t, time.Minute, reports[0].TTL)
	assert.True(t, o.HasActiveAlarm())

	// The retained window now averages (95+10)/2, back under the warning
	// limit, so the alarm clears with a single zero-TTL Ok.
	usage = 10.0
	require.NoError(t, o.Observe(context.Background()))
	clearing := sink.last()
	assert.Equal(t, models.SeverityOk, clearing.Severity)
	assert.Equal(t, time.Duration(0), clearing.TTL)
	assert.False(t, o.HasActiveAlarm())

	// Healthy and still healthy stays silent.
	sink.clear()
	require.NoError(t, o.Observe(context.Background()))
	assert.Empty(t, sink.all())
}

func TestCPUObserverSustainRefreshes(t *testing.T) {
	sink := &fakeSink{}
	cfg := config.CPUConfig{
		Common: testCommon(4),
		Node:   models.Threshold{ErrorLimit: 90, WarningLimit: 80},
	}
	o := NewCPUObserver(cfg, sink)
	o.nodeProbe = func(ctx context.Context) (*models.CPUStatus, error) {
		return &models.CPUStatus{UsagePercent: 97}, nil
	}

	require.NoError(t, o.Observe(context.Background()))
	require.NoError(t, o.Observe(context.Background()))
	require.NoError(t, o.Observe(context.Background()))

	reports := sink.all()
	require.Len(t, reports, 3)
	for _, r := range reports {
		assert.Equal(t, models.SeverityError, r.Severity)
		assert.Equal(t, reports[0].Key(), r.Key())
		assert.Equal(t, time.Minute, r.TTL)
	}
}

func TestProcessScanTransientSkipKeepsAlarm(t *testing.T) {
	sink := &fakeSink{}
	cfg := config.CPUConfig{
		Common:         testCommon(4),
		Process:        models.Threshold{ErrorLimit: 90, WarningLimit: 80},
		WatchProcesses: []string{"nginx"},
	}
	o := NewCPUObserver(cfg, sink)
	o.nodeProbe = func(ctx context.Context) (*models.CPUStatus, error) {
		return &models.CPUStatus{UsagePercent: 1}, nil
	}

	failing := false
	o.procProbe = func(ctx context.Context, name string) (models.ProcessStatus, bool, error) {
		if failing {
			return models.ProcessStatus{}, false, errors.New("access denied")
		}
		return models.ProcessStatus{Name: name, CPUPercent: 99}, true, nil
	}

	require.NoError(t, o.Observe(context.Background()))
	require.True(t, o.HasActiveAlarm())

	// A probe failure for the entity skips the sample and the
	// evaluation; the alarm must survive untouched.
	sink.clear()
	failing = true
	require.NoError(t, o.Observe(context.Background()))
	assert.True(t, o.HasActiveAlarm())
	assert.Empty(t, sink.all())
}

func TestProcessScanAbsentEntityKeepsAlarm(t *testing.T) {
	sink := &fakeSink{}
	cfg := config.CPUConfig{
		Common:         testCommon(4),
		Process:        models.Threshold{ErrorLimit: 90, WarningLimit: 80},
		WatchProcesses: []string{"fabric"},
	}
	o := NewCPUObserver(cfg, sink)
	o.nodeProbe = func(ctx context.Context) (*models.CPUStatus, error) {
		return &models.CPUStatus{UsagePercent: 1}, nil
	}

	running := true
	o.procProbe = func(ctx context.Context, name string) (models.ProcessStatus, bool, error) {
		if !running {
			return models.ProcessStatus{}, false, nil
		}
		return models.ProcessStatus{Name: name, CPUPercent: 95}, true, nil
	}

	require.NoError(t, o.Observe(context.Background()))
	require.True(t, o.HasActiveAlarm())

	sink.clear()
	running = false
	require.NoError(t, o.Observe(context.Background()))
	assert.True(t, o.HasActiveAlarm())
	assert.Empty(t, sink.all())

	// Data resumes healthy: the alarm clears through the normal path.
	running = true
	o.procProbe = func(ctx context.Context, name string) (models.ProcessStatus, bool, error) {
		return models.ProcessStatus{Name: name, CPUPercent: 2}, true, nil
	}
	require.NoError(t, o.Observe(context.Background()))
	assert.False(t, o.HasActiveAlarm())
}

func TestScanBoundedPool(t *testing.T) {
	sink := &fakeSink{}
	entities := []string{"a", "b", "c", "d", "e", "f"}
	cfg := config.CPUConfig{
		Common:         testCommon(4),
		Process:        models.Threshold{ErrorLimit: 0, WarningLimit: 0},
		WatchProcesses: entities,
	}
	o := NewCPUObserver(cfg, sink)

	var mu sync.Mutex
	inFlight, peak := 0, 0
	probe := func(ctx context.Context, name string) (float64, bool, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return 1, true, nil
	}

	require.NoError(t, o.scan(context.Background(), entities, models.MetricCPUPercent, probe))
	assert.LessOrEqual(t, peak, 2)
	for _, entity := range entities {
		key := health.EntityKey{Entity: entity, Metric: models.MetricCPUPercent}
		require.Contains(t, o.buffers, key)
		assert.Equal(t, 1, o.buffers[key].Count())
	}
}

func TestScanCancelledContext(t *testing.T) {
	sink := &fakeSink{}
	cfg := config.CPUConfig{Common: testCommon(4)}
	o := NewCPUObserver(cfg, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := o.scan(ctx, []string{"a", "b"}, models.MetricCPUPercent,
		func(ctx context.Context, name string) (float64, bool, error) {
			return 1, true, nil
		})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransientWrapping(t *testing.T) {
	base := errors.New("boom")
	assert.True(t, IsTransient(Transient(base)))
	assert.False(t, IsTransient(base))
	assert.NoError(t, Transient(nil))
	assert.ErrorIs(t, Transient(base), base)
}
