package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(provisionStepsTotal, provisionDuration) }

var provisionStepsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "provisioning_steps_total",
		Help: "Provisioning chain steps by name and result.",
	},
	[]string{"step", "result"}, // result: ok, failed
)

var provisionDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "provisioning_duration_seconds",
		Help:    "Wall time of a whole provisioning chain.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	},
	[]string{"success"},
)

func IncProvisionStep(step string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	provisionStepsTotal.WithLabelValues(norm(step), result).Inc()
}

func ObserveProvisioning(d time.Duration, ok bool) {
	label := "false"
	if ok {
		label = "true"
	}
	provisionDuration.WithLabelValues(label).Observe(d.Seconds())
}
