// Package metrics defines all custom Prometheus metrics for the Siplan
// Skills API. It is the single source of truth for metric names, labels, and
// help strings. Metrics self-register with the default registry via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "siplan_skills"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts by path and outcome.
// Labels:
//   - kind: "tenant" (exchange) or "admin" (email/password)
//   - result: "success", "invalid_credentials", "tenant_inactive", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by identity kind and result.",
	},
	[]string{"kind", "result"},
)

// RefreshesTotal counts session refresh attempts.
// Label:
//   - result: "success" or "failed"
var RefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_refreshes_total",
		Help:      "Total number of refresh-token rotations, by result.",
	},
	[]string{"result"},
)

// ExpiredSessionsTotal counts scoped requests rejected for an expired signed
// session token; the client reacts with a forced logout.
var ExpiredSessionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expired_sessions_total",
		Help:      "Total number of scoped requests rejected with an expired session token.",
	},
)

// ── Catalog metrics ───────────────────────────────────────────────────────────

// CatalogRequestsTotal counts scoped catalog requests.
// Label:
//   - scope: "restricted" (grants applied) or "unrestricted"
var CatalogRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_requests_total",
		Help:      "Total number of tenant catalog requests, by grant scope.",
	},
	[]string{"scope"},
)

// ── Progress metrics ──────────────────────────────────────────────────────────

// CompletionEventsTotal counts completion toggles accepted into the
// dispatcher.
// Label:
//   - state: "completed" or "uncompleted"
var CompletionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completion_events_total",
		Help:      "Total number of lesson completion toggles enqueued.",
	},
	[]string{"state"},
)
