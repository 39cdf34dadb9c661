package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mirrorAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calendar_mirror_attempts_total",
		Help: "Calendar provider mirror calls by operation",
	}, []string{"op"})

	mirrorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calendar_mirror_failures_total",
		Help: "Failed calendar provider mirror calls by operation",
	}, []string{"op"})
)
