package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for identity operations.
type Metrics struct {
	IssuersRegistered prometheus.Counter
	HoldersCreated    prometheus.Counter
	Logins            *prometheus.CounterVec
	AuthFailures      prometheus.Counter
	ActiveSessions    prometheus.Gauge
	SessionsRevoked   prometheus.Counter
	SessionsExpired   prometheus.Counter
}

// New registers and returns identity metrics collectors.
func New() *Metrics {
	return &Metrics{
		IssuersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_issuers_registered_total",
			Help: "Total number of issuer accounts registered",
		}),
		HoldersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_holders_created_total",
			Help: "Total number of holder accounts created",
		}),
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_logins_total",
			Help: "Total number of successful logins by principal kind",
		}, []string{"kind"}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_auth_failures_total",
			Help: "Total number of authentication failures",
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "attest_active_sessions",
			Help: "Current number of active sessions",
		}),
		SessionsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_sessions_revoked_total",
			Help: "Total number of sessions revoked by logout",
		}),
		SessionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_sessions_expired_total",
			Help: "Total number of sessions evicted lazily on validation",
		}),
	}
}
