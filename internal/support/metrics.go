package support

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var replyCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_support_replies",
	Help: "Number of support replies, by intent category and source",
}, []string{"category", "source"})

var counselFailureCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "safefeed_support_counsel_failures",
	Help: "Number of times the counsel backend failed and templates were used",
})
