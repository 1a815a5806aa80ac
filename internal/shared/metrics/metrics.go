package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the order pipeline. Registered once at package init;
// the order service exposes them on /metrics.
var (
	OrdersCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created, by channel",
		},
		[]string{"channel"},
	)

	OrderTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Total number of order status transitions, by target status",
		},
		[]string{"status"},
	)

	DiscountsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discounts_applied_total",
			Help: "Total number of discounts attached to orders, by policy",
		},
		[]string{"policy"},
	)

	NotificationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of failed or timed out subscriber deliveries",
		},
		[]string{"subscriber"},
	)

	EventsObservedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_events_observed_total",
			Help: "Total order events seen by the analytics subscriber, by kind",
		},
		[]string{"kind", "channel"},
	)
)

func init() {
	prometheus.MustRegister(
		OrdersCreatedTotal,
		OrderTransitionsTotal,
		DiscountsAppliedTotal,
		NotificationFailuresTotal,
		EventsObservedTotal,
	)
}
