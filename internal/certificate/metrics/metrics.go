package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for issuance and verification.
type Metrics struct {
	CertificatesIssued   prometheus.Counter
	IssuanceFailures     *prometheus.CounterVec
	PersistRetries       prometheus.Counter
	Verifications        *prometheus.CounterVec
	LedgerSubmitDuration prometheus.Histogram
	LedgerQueryDuration  prometheus.Histogram
}

// New registers and returns certificate metrics collectors.
func New() *Metrics {
	return &Metrics{
		CertificatesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_certificates_issued_total",
			Help: "Total number of certificates fully issued (ledger and record)",
		}),
		IssuanceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_issuance_failures_total",
			Help: "Total number of failed issuance attempts by error code",
		}, []string{"code"}),
		PersistRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_record_persist_retries_total",
			Help: "Total number of record persistence retries after a partial issuance",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_verifications_total",
			Help: "Total number of verification requests by verdict",
		}, []string{"verdict"}),
		LedgerSubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "attest_ledger_submit_duration_seconds",
			Help:    "Latency of ledger submit calls",
			Buckets: prometheus.DefBuckets,
		}),
		LedgerQueryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "attest_ledger_query_duration_seconds",
			Help:    "Latency of ledger query calls",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
