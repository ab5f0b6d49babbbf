package post

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	strategyPipeline   = "pipeline"
	strategyDecomposed = "decomposed"
	strategyCache      = "cache"

	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeFallback = "fallback"
	outcomeError    = "error"
)

var completeReads = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "board",
	Subsystem: "post",
	Name:      "complete_reads_total",
	Help:      "Complete post reads by serving strategy and outcome.",
}, []string{"strategy", "outcome"})
