// Package metrics defines and registers the custom Prometheus metrics of the
// reserved realm service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "realm"

// ── Authentication metrics ────────────────────────────────────────────────────

// AuthAttemptsTotal counts authentication attempts by outcome.
// Labels:
//   - scheme: "basic" or "bearer"
//   - outcome: "authenticated", "failed" or "not_applicable"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by scheme and outcome.",
	},
	[]string{"scheme", "outcome"},
)

// AuthFailuresTotal counts rejected attempts.
// Label:
//   - reason: "bad_credentials", "migration_pending", "lookup_failed",
//     "disabled", "invalid_token" or "unknown_user"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of rejected authentication attempts, by reason.",
	},
	[]string{"reason"},
)

// AuthDuration measures realm authentication latency, hashing included.
var AuthDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_duration_seconds",
		Help:      "Duration of a realm authentication call.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"scheme"},
)

// ── Credential management metrics ────────────────────────────────────────────

// TokensIssuedTotal counts access tokens handed out.
var TokensIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of access tokens issued.",
	},
)

// PasswordChangesTotal counts reserved password changes.
// Label:
//   - result: "ok" or "error"
var PasswordChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_changes_total",
		Help:      "Total number of reserved user password changes, by result.",
	},
	[]string{"result"},
)

// BootstrapTotal counts superuser bootstrap attempts.
// Label:
//   - result: "installed", "skipped" or "error"
var BootstrapTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bootstrap_total",
		Help:      "Total number of superuser password bootstrap attempts, by result.",
	},
	[]string{"result"},
)
