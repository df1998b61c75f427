package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(turnsTotal, rateLimitedTotal) }

var turnsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_turns_total",
		Help: "Inbound chat turns by the step they started in and their outcome.",
	},
	[]string{"step", "outcome"}, // outcome: reply, provisioned, provision_failed, busy, error
)

var rateLimitedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "chat_turns_rate_limited_total",
		Help: "Inbound chat turns rejected by the per-user rate limiter.",
	},
)

func IncTurn(step, outcome string) {
	turnsTotal.WithLabelValues(norm(step), norm(outcome)).Inc()
}

func IncRateLimited() { rateLimitedTotal.Inc() }
