package health

import (
	"time"

	"nodewarden/internal/models"
)

// EntityKey identifies one tracked series: an entity plus the metric
// measured on it.
type EntityKey struct {
	Entity string
	Metric models.MetricKind
}

// Detail carries the observed values a report message is built from.
// Message, when set, overrides the generated text for alerting reports;
// observers that classify severity directly (connectivity, certificate
// expiry) use it because a threshold comparison never happened.
type Detail struct {
	Observed  float64
	Peak      float64
	Threshold models.Threshold
	Message   string
}

// Tracker is the per-observer health transition state machine. It keeps
// one state per entity/metric pair and decides, for each cycle's
// evaluation, whether a report must go out and what it says.
//
// A tracker is owned by one observer and driven from that observer's
// cycle; it is not safe for concurrent use.
type Tracker struct {
	source string
	ttl    time.Duration
	now    func() time.Time
	states map[EntityKey]models.Severity
}

// NewTracker creates a tracker for the named observer. ttl is attached
// to alerting reports so the sink expires them if the observer dies;
// sustain transitions refresh it every cycle while the condition holds.
func NewTracker(source string, ttl time.Duration) *Tracker {
	return &Tracker{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		states: make(map[EntityKey]models.Severity),
	}
}

// Transition applies this cycle's evaluation for the keyed entity and
// returns the report to submit, or nil when nothing needs to go out.
// The second return reports whether an alarm is active for the key after
// the transition; observers aggregate it into their cycle result instead
// of keeping an ambient flag.
//
// A newly observed entity starts Healthy. Skipped evaluations must not
// call Transition at all: the state is left untouched so an absent
// entity keeps its alarm until data resumes.
func (t *Tracker) Transition(key EntityKey, sev models.Severity, d Detail) (*models.HealthReport, bool) {
	prev, known := t.states[key]
	if !known {
		prev = models.SeverityOk
	}

	if !sev.Alerting() {
		if !prev.Alerting() {
			// Healthy and still healthy, nothing to report.
			return nil, false
		}
		// Clearing transition: one explicit Ok with zero TTL so the sink
		// drops the prior alarm immediately instead of waiting it out.
		t.states[key] = models.SeverityOk
		r := t.build(key, models.SeverityOk, d, 0)
		return &r, false
	}

	// Raise, escalate, de-escalate or sustain: every alerting cycle
	// emits a report under the same identity key, so the sink always
	// holds the current severity with a fresh TTL. Dropping the sustain
	// re-emit would let a still-true alarm expire silently.
	t.states[key] = sev
	r := t.build(key, sev, d, t.ttl)
	return &r, true
}

// Info builds an informational Ok report outside the state machine, for
// observers that publish standing facts (OS details) rather than alarms.
func (t *Tracker) Info(key EntityKey, message string, ttl time.Duration) models.HealthReport {
	return models.HealthReport{
		EntityID:   key.Entity,
		Metric:     key.Metric,
		Severity:   models.SeverityOk,
		Message:    message,
		TTL:        ttl,
		Source:     t.source,
		ObservedAt: t.now(),
	}
}

// ActiveCount returns how many tracked keys currently hold an alarm.
func (t *Tracker) ActiveCount() int {
	n := 0
	for _, sev := range t.states {
		if sev.Alerting() {
			n++
		}
	}
	return n
}

// HasActiveAlarm reports whether any tracked entity is alarming.
func (t *Tracker) HasActiveAlarm() bool {
	return t.ActiveCount() > 0
}

// Forget drops the state for a key without emitting anything, for
// entities that were removed from the watch configuration.
func (t *Tracker) Forget(key EntityKey) {
	delete(t.states, key)
}

func (t *Tracker) build(key EntityKey, sev models.Severity, d Detail, ttl time.Duration) models.HealthReport {
	msg := Message(key, sev, d)
	if d.Message != "" && sev.Alerting() {
		msg = d.Message
	}
	return models.HealthReport{
		EntityID:   key.Entity,
		Metric:     key.Metric,
		Severity:   sev,
		Message:    msg,
		TTL:        ttl,
		Source:     t.source,
		ObservedAt: t.now(),
	}
}
