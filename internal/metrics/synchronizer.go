package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncBackfillBatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "synchronizer",
		Name:      "backfill_batches_total",
		Help:      "Count of header batches requested during backfill.",
	}, []string{"network", "status"})

	syncBackfillBatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "synchronizer",
		Name:      "backfill_batch_duration_seconds",
		Help:      "Duration of fetching and storing a header batch.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	syncBackfillBatchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "synchronizer",
		Name:      "backfill_batch_size",
		Help:      "Number of headers appended per backfill batch.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"network"})

	syncFollowTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "synchronizer",
		Name:      "follow_total",
		Help:      "Count of follow steps polling for headers past the tip.",
	}, []string{"network", "status"})

	syncFollowAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "synchronizer",
		Name:      "follow_appended_headers_total",
		Help:      "Count of headers appended while listening.",
	}, []string{"network"})

	syncState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "synchronizer",
		Name:      "state",
		Help:      "1 for the current synchronizer state, 0 otherwise.",
	}, []string{"network", "state"})

	syncTipHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "synchronizer",
		Name:      "tip_height",
		Help:      "Height of the local header chain tip.",
	}, []string{"network"})

	syncQueueLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "synchronizer",
		Name:      "queue_length",
		Help:      "Pending verifications waiting for their block.",
	}, []string{"network"})
)

var syncStates = []string{"UNINITIALIZED", "BACKFILLING", "LISTENING", "STOPPED"}

// Synchronizer tracks the chain synchronizer state machine.
type Synchronizer struct {
	network model.Network
}

// NewSynchronizer constructs a Synchronizer with defaults.
func NewSynchronizer(network model.Network) *Synchronizer {
	if network == "" {
		network = "unknown"
	}
	return &Synchronizer{network: network}
}

// ObserveBackfillBatch records one batch attempt and the headers it appended.
func (m Synchronizer) ObserveBackfillBatch(err error, headers int, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	syncBackfillBatchTotal.WithLabelValues(string(m.network), status).Inc()
	syncBackfillBatchDuration.WithLabelValues(string(m.network), status).
		Observe(time.Since(started).Seconds())
	syncBackfillBatchSize.WithLabelValues(string(m.network)).Observe(float64(headers))
}

// ObserveFollow records a follow step.
func (m Synchronizer) ObserveFollow(err error, appended int) {
	status := "success"
	if err != nil {
		status = "error"
	}
	syncFollowTotal.WithLabelValues(string(m.network), status).Inc()
	syncFollowAppended.WithLabelValues(string(m.network)).Add(float64(appended))
}

func (m Synchronizer) SetState(state string) {
	for _, s := range syncStates {
		v := 0.0
		if s == state {
			v = 1
		}
		syncState.WithLabelValues(string(m.network), s).Set(v)
	}
}

func (m Synchronizer) SetTipHeight(height uint32) {
	syncTipHeight.WithLabelValues(string(m.network)).Set(float64(height))
}

func (m Synchronizer) SetQueueLength(n int) {
	syncQueueLength.WithLabelValues(string(m.network)).Set(float64(n))
}
