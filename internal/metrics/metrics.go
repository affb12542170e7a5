package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cptinterp_calculations_total",
			Help: "Total probe interpretations by scheme and outcome",
		},
		[]string{"scheme", "status"},
	)

	CalculationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cptinterp_calculation_latency_seconds",
			Help:    "Probe interpretation latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"scheme"},
	)

	SamplesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cptinterp_samples_classified_total",
			Help: "Total samples classified by scheme and zone label",
		},
		[]string{"scheme", "zone"},
	)

	ReadingsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cptinterp_readings_imported_total",
			Help: "Total raw readings imported by source kind",
		},
		[]string{"source"},
	)

	ReadingsFlagged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cptinterp_readings_flagged_total",
			Help: "Total quality flags raised on imported readings",
		},
		[]string{"flag"},
	)

	FetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cptinterp_fetch_latency_seconds",
			Help:    "Remote sounding data fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "status"},
	)
)
