package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(sessionStoreOpsTotal) }

var sessionStoreOpsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "session_store_ops_total",
		Help: "Session store operations by kind and result.",
	},
	[]string{"op", "result"}, // op: get, save, delete; result: hit, miss, ok, error
)

func IncSessionOp(op, result string) {
	sessionStoreOpsTotal.WithLabelValues(norm(op), norm(result)).Inc()
}
