package observers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodewarden/internal/config"
	"nodewarden/internal/models"
)

func TestNetworkObserverEndpointDownAndRecovery(t *testing.T) {
	sink := &fakeSink{}
	cfg := config.NetworkConfig{
		Common:          testCommon(1),
		Endpoints:       []string{"db.internal:5432"},
		FailureSeverity: models.SeverityWarning,
	}
	o := NewNetworkObserver(cfg, sink)

	down := true
	o.dial = func(ctx context.Context, address string) error {
		if down {
			return errors.New("connection refused")
		}
		return nil
	}

	require.NoError(t, o.Observe(context.Background()))
	reports := sink.all()
	require.Len(t, reports, 1)
	assert.Equal(t, models.SeverityWarning, reports[0].Severity)
	assert.Equal(t, "db.internal:5432", reports[0].EntityID)
	assert.Contains(t, reports[0].Message, "unreachable")

	// Still down: the alarm is re-emitted under the same key.
	require.NoError(t, o.Observe(context.Background()))
	require.Len(t, sink.all(), 2)
	assert.Equal(t, reports[0].Key(), sink.last().Key())

	// Back up: one clearing Ok, then silence.
	down = false
	sink.clear()
	require.NoError(t, o.Observe(context.Background()))
	require.Len(t, sink.all(), 1)
	assert.Equal(t, models.SeverityOk, sink.last().Severity)

	require.NoError(t, o.Observe(context.Background()))
	assert.Len(t, sink.all(), 1)
}

func TestNetworkObserverCancelledDialAbortsCycle(t *testing.T) {
	sink := &fakeSink{}
	cfg := config.NetworkConfig{
		Common:          testCommon(1),
		Endpoints:       []string{"db.internal:5432"},
		FailureSeverity: models.SeverityWarning,
	}
	o := NewNetworkObserver(cfg, sink)

	ctx, cancel := context.WithCancel(context.Background())
	o.dial = func(ctx context.Context, address string) error {
		// Dial blocked until the cycle was cancelled out from under it.
		cancel()
		return ctx.Err()
	}

	err := o.Observe(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.all(), "an aborted dial must not be reported as endpoint failure")
}

func TestNetworkObserverFailureSeverityError(t *testing.T) {
	sink := &fakeSink{}
	cfg := config.NetworkConfig{
		Common:          testCommon(1),
		Endpoints:       []string{"queue.internal:5672"},
		FailureSeverity: models.SeverityError,
	}
	o := NewNetworkObserver(cfg, sink)
	o.dial = func(ctx context.Context, address string) error {
		return errors.New("timeout")
	}

	require.NoError(t, o.Observe(context.Background()))
	require.Len(t, sink.all(), 1)
	assert.Equal(t, models.SeverityError, sink.last().Severity)
}

func TestNetworkObserverInterfaceErrorBaseline(t *testing.T) {
	sink := &fakeSink{}
	cfg := config.NetworkConfig{
		Common:          testCommon(4),
		InterfaceErrors: models.Threshold{ErrorLimit: 100, WarningLimit: 10},
	}
	o := NewNetworkObserver(cfg, sink)

	counters := uint64(1000)
	o.ifaceProbe = func(ctx context.Context) ([]models.NetworkStatus, error) {
		return []models.NetworkStatus{{Interface: "eth0", ErrorsIn: counters}}, nil
	}

	// First cycle only seeds the baseline: cumulative counters carry the
	// machine's whole history and must not alarm on their own.
	require.NoError(t, o.Observe(context.Background()))
	assert.Empty(t, sink.all())

	// 50 new errors since last cycle crosses the warning limit.
	counters += 50
	require.NoError(t, o.Observe(context.Background()))
	reports := sink.all()
	require.Len(t, reports, 1)
	assert.Equal(t, models.SeverityWarning, reports[0].Severity)
	assert.Equal(t, models.MetricNetworkErrors, reports[0].Metric)

	// A counter reset (interface bounce) reads as zero delta.
	sink.clear()
	counters = 10
	require.NoError(t, o.Observe(context.Background()))
	require.Len(t, sink.all(), 1)
	assert.Equal(t, models.SeverityOk, sink.last().Severity)
}
