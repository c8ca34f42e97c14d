package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_moderation_decisions",
	Help: "Number of submissions decided, by content kind, status and verdict source",
}, []string{"kind", "status", "source"})

var autoReportCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_moderation_auto_reports",
	Help: "Number of auto-reports attempted, by outcome",
}, []string{"outcome"})

var escalationCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_moderation_escalations",
	Help: "Number of immediate-action escalations, by outcome",
}, []string{"outcome"})

var adminActionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_moderation_admin_actions",
	Help: "Number of admin moderation commands applied",
}, []string{"type", "action"})

var reportListingDegraded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "safefeed_moderation_report_listing_degraded",
	Help: "Number of report listings served with partial or no data",
})
