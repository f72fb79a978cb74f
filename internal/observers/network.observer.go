package observers

import (
	"context"
	"fmt"
	"net"

	"nodewarden/internal/config"
	"nodewarden/internal/health"
	"nodewarden/internal/models"
	"nodewarden/internal/series"
	"nodewarden/internal/services"
)

// NetworkObserver checks that configured endpoints are reachable and
// watches interface error/drop counters. Reachability is a direct
// classification: an endpoint is up or it is not, there is no average
// to threshold, so failures go straight through the transition machine
// at the configured severity.
type NetworkObserver struct {
	watcher
	cfg        config.NetworkConfig
	dial       func(ctx context.Context, address string) error
	ifaceProbe func(ctx context.Context) ([]models.NetworkStatus, error)
	lastErrors map[string]uint64
}

func NewNetworkObserver(cfg config.NetworkConfig, sink health.Sink) *NetworkObserver {
	o := &NetworkObserver{
		watcher:    newWatcher("network", cfg.Common, sink, series.FixedWindow, false),
		cfg:        cfg,
		ifaceProbe: services.GetNetworkUsage,
		lastErrors: make(map[string]uint64),
	}
	o.dial = func(ctx context.Context, address string) error {
		var d net.Dialer
		dctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout.Std())
		defer cancel()
		conn, err := d.DialContext(dctx, "tcp", address)
		if err != nil {
			return err
		}
		return conn.Close()
	}
	return o
}

func (o *NetworkObserver) Observe(ctx context.Context) error {
	for _, endpoint := range o.cfg.Endpoints {
		if err := ctx.Err(); err != nil {
			return err
		}

		sev := models.SeverityOk
		message := ""
		if err := o.dial(ctx, endpoint); err != nil {
			// A dial aborted by cycle cancellation says nothing about
			// the endpoint.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sev = o.failureSeverity()
			message = fmt.Sprintf("%s: endpoint unreachable: %v", endpoint, err)
		}
		if err := o.classify(endpoint, models.MetricEndpointDown, sev, message); err != nil {
			return err
		}
	}

	if o.cfg.InterfaceErrors.Enabled() {
		if err := o.observeInterfaceErrors(ctx); err != nil {
			return err
		}
	}
	return nil
}

// observeInterfaceErrors samples the delta of errors plus drops across
// all interfaces since the previous cycle. Counters are cumulative, so
// the first cycle only seeds the baseline.
func (o *NetworkObserver) observeInterfaceErrors(ctx context.Context) error {
	statuses, err := o.ifaceProbe(ctx)
	if err != nil {
		return fmt.Errorf("interface counters: %w", err)
	}

	var total uint64
	for _, status := range statuses {
		total += status.ErrorsIn + status.ErrorsOut + status.DropsIn + status.DropsOut
	}

	last, seeded := o.lastErrors["node"]
	o.lastErrors["node"] = total
	if !seeded {
		return nil
	}

	delta := float64(0)
	if total > last {
		delta = float64(total - last)
	}
	o.buffer("node", models.MetricNetworkErrors).Append(delta)
	return o.settle("node", models.MetricNetworkErrors, o.cfg.InterfaceErrors)
}

func (o *NetworkObserver) failureSeverity() models.Severity {
	if o.cfg.FailureSeverity == models.SeverityError {
		return models.SeverityError
	}
	return models.SeverityWarning
}
