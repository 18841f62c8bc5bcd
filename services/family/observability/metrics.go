// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the family
// service.
//
// # Description
//
// Metrics cover the write path (mutations by operation and outcome,
// transaction retries) and the read path (traversal sizes and
// latencies). Exposed via the /metrics endpoint; use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "silsila"

// Subsystem for family graph metrics
const familySubsystem = "family"

// FamilyMetrics holds all Prometheus metrics for family graph operations.
//
// Initialize once at startup via InitMetrics().
type FamilyMetrics struct {
	// MutationsTotal counts graph mutations by operation and outcome.
	// Labels: operation (create, update, delete, link, unlink, add_child,
	// moderate), outcome (success, not_found, invalid, ambiguous, error)
	MutationsTotal *prometheus.CounterVec

	// QueriesTotal counts read queries by kind and outcome.
	// Labels: kind (get, list, ancestry, family, traversal, search),
	// outcome (success, not_found, error)
	QueriesTotal *prometheus.CounterVec

	// QueryDurationSeconds measures read query latency.
	// Labels: kind
	QueryDurationSeconds *prometheus.HistogramVec

	// TraversalPersons measures how many records a traversal touched.
	// Labels: kind (ancestry, traversal)
	TraversalPersons *prometheus.HistogramVec

	// PendingRecords tracks the number of records awaiting moderation.
	PendingRecords prometheus.Gauge

	// CounterIncrementsTotal counts tasbeeh counter updates.
	CounterIncrementsTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance of FamilyMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *FamilyMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics against the default
// registry. Call once at application startup.
//
// # Outputs
//
//   - *FamilyMetrics: The initialized metrics instance.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *FamilyMetrics {
	DefaultMetrics = &FamilyMetrics{
		MutationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: familySubsystem,
				Name:      "mutations_total",
				Help:      "Total graph mutations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		QueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: familySubsystem,
				Name:      "queries_total",
				Help:      "Total read queries by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		QueryDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: familySubsystem,
				Name:      "query_duration_seconds",
				Help:      "Read query latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"kind"},
		),

		TraversalPersons: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: familySubsystem,
				Name:      "traversal_persons",
				Help:      "Number of person records returned by a traversal",
				Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"kind"},
		),

		PendingRecords: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: familySubsystem,
				Name:      "pending_records",
				Help:      "Records currently awaiting moderation",
			},
		),

		CounterIncrementsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: familySubsystem,
				Name:      "counter_increments_total",
				Help:      "Total tasbeeh counter updates",
			},
		),
	}
	return DefaultMetrics
}

// RecordMutation increments the mutation counter if metrics are
// initialized. Safe to call when InitMetrics was never run (tests).
func RecordMutation(operation, outcome string) {
	if DefaultMetrics != nil {
		DefaultMetrics.MutationsTotal.WithLabelValues(operation, outcome).Inc()
	}
}

// RecordQuery increments the query counter if metrics are initialized.
func RecordQuery(kind, outcome string) {
	if DefaultMetrics != nil {
		DefaultMetrics.QueriesTotal.WithLabelValues(kind, outcome).Inc()
	}
}
