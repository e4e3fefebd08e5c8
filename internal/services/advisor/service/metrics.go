package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sourceStored = "stored"
	sourceInline = "inline"
)

var (
	// runsTotal counts advisor runs by where the rows came from and whether the run succeeded
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bioreactor_advisor_runs_total",
		Help: "Advisor runs by row source and result",
	}, []string{"source", "result"})

	runSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bioreactor_advisor_run_seconds",
		Help:    "Advisor run latency in seconds by predictor",
		Buckets: prometheus.DefBuckets,
	}, []string{"predictor"})

	rowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bioreactor_advisor_rows_total",
		Help: "Observation rows advised",
	})
)
