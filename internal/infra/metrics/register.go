package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register queues collectors from each file's init().
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister registers the queued collectors with the default registry.
// Later calls are no-ops.
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(collectors...)
	})
}
