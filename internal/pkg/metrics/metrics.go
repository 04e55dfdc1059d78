// Package metrics defines and registers the custom Prometheus metrics of the
// rental API. It is the single source of truth for metric names, labels and
// help strings. Everything registers with the default registry through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rental"

// Result label values shared by the session counters.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SignInsTotal counts password and federated sign-in attempts.
// Labels:
//   - kind: actor kind ("user", "landlord", "tenant", "admin")
//   - result: "success" or "failure"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of sign-in attempts, by actor kind and result.",
	},
	[]string{"kind", "result"},
)

// RefreshesTotal counts access token refreshes, explicit and silent.
var RefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total number of access token refresh attempts, by actor kind and result.",
	},
	[]string{"kind", "result"},
)

// ActivationsTotal counts account activation attempts.
var ActivationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activations_total",
		Help:      "Total number of account activation attempts, by actor kind and result.",
	},
	[]string{"kind", "result"},
)

// PasswordResetsTotal counts password reset requests and completions.
// Label:
//   - stage: "requested" or "completed"
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password reset operations, by actor kind and stage.",
	},
	[]string{"kind", "stage"},
)

// FederatedSignInsTotal counts federated sign-ins by the path they took.
// Label:
//   - outcome: "existing", "linked" or "created"
var FederatedSignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "federated_sign_ins_total",
		Help:      "Total number of successful federated sign-ins, by provider and outcome.",
	},
	[]string{"provider", "outcome"},
)

// RateLimitedTotal counts requests rejected by the rate limiter, by route.
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"route"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailSentTotal counts outbound emails handed to the sender.
var MailSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_sent_total",
		Help:      "Total number of outbound emails, by result.",
	},
	[]string{"result"},
)

// MailQueueDepth tracks the number of messages waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of messages pending in each mail worker channel.",
	},
	[]string{"worker_id"},
)

// MailSendDuration measures a single SMTP delivery.
var MailSendDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mail_send_duration_seconds",
		Help:      "Duration of a single outbound email delivery.",
		Buckets:   prometheus.DefBuckets,
	},
)

// Result maps an error to the result label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
