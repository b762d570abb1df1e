// Package metrics defines the custom Prometheus metrics for the verification
// backend. It is the single source of truth for metric names, labels, and
// help strings; promauto registers everything with the default registry at
// init time.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "phoneverify"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SignupsTotal counts successfully created accounts.
var SignupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of accounts created.",
	},
)

// TokenRotationsTotal counts refresh-token rotation attempts.
// Label:
//   - result: "rotated", "reuse" (stale token replayed), or "rejected"
var TokenRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rotations_total",
		Help:      "Total number of refresh-token rotation attempts, by result.",
	},
	[]string{"result"},
)

// ── Rate-limit metrics ────────────────────────────────────────────────────────

// RateLimitExceededTotal counts requests rejected by the tiered limiter.
// Labels:
//   - route_class: "generic", "login", "signup", "password_reset"
//   - tier: the role tier the quota was drawn from
var RateLimitExceededTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_exceeded_total",
		Help:      "Total number of requests rejected with 429, by route class and tier.",
	},
	[]string{"route_class", "tier"},
)

// ── Phone metrics ─────────────────────────────────────────────────────────────

// PhoneValidationsTotal counts validation requests.
// Label:
//   - valid: "true" or "false"
var PhoneValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "phone_validations_total",
		Help:      "Total number of phone-number validations performed, by outcome.",
	},
	[]string{"valid"},
)
