// Package metrics defines and registers all custom Prometheus metrics for the
// JuthWorks web gateway. It is the single source of truth for metric names,
// labels, and help strings. Metrics register with the default registry at
// import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "juthworks"

// GateDecisionsTotal counts admission-control outcomes per navigation.
// Label:
//   - outcome: "render", "redirect_login", "redirect_role_default", "redirect_onboarding"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of route admission decisions, by outcome.",
	},
	[]string{"outcome"},
)

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

// OnboardingCompletedTotal counts completed onboarding flows.
// Label:
//   - via: "finish" (last-step button) or "skip"
var OnboardingCompletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "onboarding_completed_total",
		Help:      "Total number of onboarding completions, by affordance used.",
	},
	[]string{"via"},
)

// BackendRequestDuration measures calls to the external JuthWorks API.
// Label:
//   - op: stable operation name (e.g. "login", "services", "admin_send_quote")
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of HTTP calls to the external backend API.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// BackendRequestErrors counts failed calls to the external JuthWorks API.
// Labels:
//   - op: stable operation name
//   - reason: "transport", "read", or the upstream HTTP status code
var BackendRequestErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_request_errors_total",
		Help:      "Total number of failed backend API calls, by operation and reason.",
	},
	[]string{"op", "reason"},
)
