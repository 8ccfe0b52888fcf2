// Package metrics holds the Prometheus collectors for back-office business
// events. Label values come from small closed sets (statuses, posting kinds,
// operation names) so cardinality stays bounded.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// MatchingTransitions counts lifecycle transitions by target status
	// ("InProgress" for creation).
	MatchingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_matching_transitions_total",
			Help: "Matching lifecycle transitions by target status.",
		},
		[]string{"to"},
	)

	// SettlementOps counts settle/unsettle/edit operations per posting kind.
	SettlementOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_settlement_operations_total",
			Help: "Settlement operations by posting kind and operation.",
		},
		[]string{"kind", "op"},
	)

	// EventPublishFailures counts lifecycle events that could not be delivered.
	EventPublishFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_event_publish_failures_total",
			Help: "Domain events dropped because the sink returned an error.",
		},
		[]string{"type"},
	)

	// DashboardCache counts dashboard cache lookups by result (hit|miss|error).
	DashboardCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_dashboard_cache_total",
			Help: "Dashboard cache lookups by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(MatchingTransitions, SettlementOps, EventPublishFailures, DashboardCache)
}
