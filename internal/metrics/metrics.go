// Package metrics exposes the agent's own operational counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts completed observer cycles.
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodewarden",
		Name:      "observer_cycles_total",
		Help:      "Completed observation cycles per observer.",
	}, []string{"observer"})

	// CycleErrorsTotal counts cycles that ended with a fatal error.
	CycleErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodewarden",
		Name:      "observer_cycle_errors_total",
		Help:      "Observation cycles that failed per observer.",
	}, []string{"observer"})

	// CycleDuration tracks wall time per observer cycle.
	CycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nodewarden",
		Name:      "observer_cycle_duration_seconds",
		Help:      "Wall-clock duration of observation cycles.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"observer"})

	// ReportsTotal counts health reports accepted by the sink.
	ReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodewarden",
		Name:      "health_reports_total",
		Help:      "Health reports submitted, by source observer and severity.",
	}, []string{"observer", "severity"})

	// ActiveAlarms gauges the number of live warning/error reports.
	ActiveAlarms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nodewarden",
		Name:      "active_alarms",
		Help:      "Currently active warning and error reports.",
	})
)
