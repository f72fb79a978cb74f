package models

import (
	"fmt"
	"time"
)

// HealthReport is the immutable value handed to the health sink.
// Reports sharing the same Key supersede each other in the sink.
type HealthReport struct {
	EntityID   string        `json:"entity_id"`
	Metric     MetricKind    `json:"metric"`
	Severity   Severity      `json:"severity"`
	Message    string        `json:"message"`
	TTL        time.Duration `json:"ttl"`
	Source     string        `json:"source"`
	ObservedAt time.Time     `json:"observed_at"`
}

// Key is the identity under which the sink stores and supersedes reports.
func (r HealthReport) Key() string {
	return fmt.Sprintf("%s/%s/%s", r.Source, r.EntityID, r.Metric)
}

// HealthSummary aggregates the sink's current contents for the API.
type HealthSummary struct {
	Node           string    `json:"node"`
	Severity       Severity  `json:"severity"`
	HasActiveAlarm bool      `json:"has_active_alarm"`
	Warnings       int       `json:"warnings"`
	Errors         int       `json:"errors"`
	Reports        int       `json:"reports"`
	GeneratedAt    time.Time `json:"generated_at"`
}
