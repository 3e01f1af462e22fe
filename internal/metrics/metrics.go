// Package metrics holds the process-wide Prometheus collectors for the approval workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var CasesOpened = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botgate_cases_opened_total",
	Help: "Join events handled by the approval engine, by open result",
}, []string{"result"})

var CasesResolved = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botgate_cases_resolved_total",
	Help: "Terminal transitions of approval cases",
}, []string{"status"})

var CasesPending = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "botgate_cases_pending",
	Help: "Approval cases currently awaiting a decision",
})

var ResolveLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "botgate_case_resolve_seconds",
	Help:    "Time from case creation to terminal resolution",
	Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
})

var KickResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botgate_kicks_total",
	Help: "Removal attempts, by outcome",
}, []string{"outcome"})

var NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botgate_notifications_total",
	Help: "Direct messages sent to moderators, by kind and outcome",
}, []string{"kind", "outcome"})

var AuditWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "botgate_audit_write_errors_total",
	Help: "Audit records that could not be persisted",
})

var ResponsesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botgate_responses_total",
	Help: "Moderator responses, by source and result",
}, []string{"source", "result"})
