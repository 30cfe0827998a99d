package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "verifier",
		Name:      "verifications_total",
		Help:      "Count of verification attempts by merkle root outcome.",
	}, []string{"network", "merkle_root", "status"})
	verificationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "verifier",
		Name:      "verification_duration_seconds",
		Help:      "Duration of a single verification attempt.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})
	verifiedTransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "verifier",
		Name:      "transactions_total",
		Help:      "Count of candidate leaves checked by output outcome.",
	}, []string{"network", "tx_status"})
)

// Verifier tracks merkle proof engine outcomes.
type Verifier struct {
	network model.Network
}

func NewVerifier(network model.Network) *Verifier {
	if network == "" {
		network = "unknown"
	}
	return &Verifier{network: network}
}

// ObserveVerification records one attempt. A failed attempt is labelled with
// the root status it carried at the time of failure.
func (m Verifier) ObserveVerification(result model.VerificationResult, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	root := string(result.MerkleRoot)
	if root == "" {
		root = string(model.MerkleRootUnverified)
	}

	verificationsTotal.WithLabelValues(string(m.network), root, status).Inc()
	verificationDuration.WithLabelValues(string(m.network), status).Observe(time.Since(started).Seconds())
	for _, tx := range result.Transactions {
		verifiedTransactionsTotal.WithLabelValues(string(m.network), string(tx.Status)).Inc()
	}
}
