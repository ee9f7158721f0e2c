package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all the Prometheus metrics for the simulation core.
type Metrics struct {
	EventsGeneratedTotal *prometheus.CounterVec
	EventsHandledTotal   prometheus.Counter
	EventsEscalatedTotal prometheus.Counter
	RulesEvaluatedTotal  prometheus.Counter
	RulesTriggeredTotal  prometheus.Counter
	FalsePositivesTotal  prometheus.Counter
	Score                prometheus.Gauge
	Uptime               prometheus.Gauge
	Level                prometheus.Gauge
	PendingEvents        prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all collectors registered on
// the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsGeneratedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "range_events_generated_total",
			Help: "Total number of events generated, by category",
		}, []string{"category"}),
		EventsHandledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "range_events_handled_total",
			Help: "Total number of malicious events handled before escalation",
		}),
		EventsEscalatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "range_events_escalated_total",
			Help: "Total number of malicious events that escalated",
		}),
		RulesEvaluatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "range_rules_evaluated_total",
			Help: "Total number of rule evaluations performed",
		}),
		RulesTriggeredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "range_rules_triggered_total",
			Help: "Total number of rule matches against live events",
		}),
		FalsePositivesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "range_false_positives_total",
			Help: "Total number of player actions applied to non-malicious events",
		}),
		Score: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "range_score",
			Help: "Current cumulative session score",
		}),
		Uptime: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "range_uptime_percent",
			Help: "Current simulated uptime percentage",
		}),
		Level: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "range_level",
			Help: "Current difficulty level ordinal",
		}),
		PendingEvents: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "range_pending_events",
			Help: "Malicious events currently awaiting handling or escalation",
		}),
	}
}
