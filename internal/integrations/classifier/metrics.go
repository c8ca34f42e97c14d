package classifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var classifyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "safefeed_classifier_duration_sec",
	Help:    "Duration of classifier calls, including fallback",
	Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
}, []string{"source"})

var classifyCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_classifier_verdicts",
	Help: "Number of verdicts produced, by source",
}, []string{"source"})

var fallbackCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_classifier_fallbacks",
	Help: "Number of times the fallback detector was used, by reason",
}, []string{"reason"})

var trainingSubmitCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_classifier_training_submissions",
	Help: "Number of training records submitted, by outcome",
}, []string{"outcome"})

var breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "safefeed_classifier_breaker_state",
	Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
}, []string{"name"})

var serviceUp = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "safefeed_classifier_service_up",
	Help: "Whether the last health probe of the model service succeeded",
})
