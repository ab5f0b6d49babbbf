package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opGet    = "get"
	opSet    = "set"
	opDelete = "delete"

	resultHit   = "hit"
	resultMiss  = "miss"
	resultOK    = "ok"
	resultError = "error"
	resultStale = "stale"
)

var requests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "board",
	Subsystem: "cache",
	Name:      "requests_total",
	Help:      "Cache operations by operation and result.",
}, []string{"op", "result"})

func record(op, result string, n int) {
	if n <= 0 {
		return
	}
	requests.WithLabelValues(op, result).Add(float64(n))
}
