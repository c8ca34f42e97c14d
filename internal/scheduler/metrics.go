package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safefeed_scheduler_job_runs",
	Help: "Number of scheduled job runs, by job and outcome",
}, []string{"job", "outcome"})
