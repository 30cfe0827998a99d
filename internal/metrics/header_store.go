package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	headerStoreOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "header_store",
		Name:      "operations_total",
		Help:      "Count of header store operations.",
	}, []string{"operation", "backend", "network", "status"})
	headerStoreOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "header_store",
		Name:      "operation_duration_seconds",
		Help:      "Duration of header store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "backend", "network", "status"})
)

// HeaderStore tracks anchor, append and lookup calls on the header store.
type HeaderStore struct {
	backend string
	network model.Network
}

func NewHeaderStore(backend string, network model.Network) *HeaderStore {
	if backend == "" {
		backend = "unknown"
	}
	if network == "" {
		network = "unknown"
	}
	return &HeaderStore{backend: backend, network: network}
}

func (m HeaderStore) Observe(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	headerStoreOperationsTotal.WithLabelValues(operation, m.backend, string(m.network), status).Inc()
	headerStoreOperationDuration.WithLabelValues(operation, m.backend, string(m.network), status).
		Observe(time.Since(started).Seconds())
}
