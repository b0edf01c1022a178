package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var IngestionDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "skywatch",
		Subsystem: "ingestion",
		Name:      "duration_seconds",
		Help:      "Duration of one full ingestion run in seconds.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	},
)

var IngestionRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "skywatch",
		Subsystem: "ingestion",
		Name:      "runs_total",
		Help:      "Total number of ingestion runs by outcome status.",
	},
	[]string{"status"},
)

var AsteroidsUpsertedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "skywatch",
		Subsystem: "ingestion",
		Name:      "asteroids_upserted_total",
		Help:      "Total number of asteroid rows created or updated, by kind.",
	},
	[]string{"kind"},
)

var ApproachesUpsertedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "skywatch",
		Subsystem: "ingestion",
		Name:      "approaches_upserted_total",
		Help:      "Total number of close-approach rows created or updated.",
	},
)

var ThreatsUpsertedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "skywatch",
		Subsystem: "ingestion",
		Name:      "threats_upserted_total",
		Help:      "Total number of threat assessment rows created or updated.",
	},
)

var CircuitBreakerStateGauge = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "skywatch",
		Subsystem: "resilience",
		Name:      "circuit_breaker_state",
		Help:      "Current circuit breaker state by endpoint (0=closed, 1=open, 2=half-open).",
	},
	[]string{"endpoint"},
)

var BulkheadRejectedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "skywatch",
		Subsystem: "resilience",
		Name:      "bulkhead_rejected_total",
		Help:      "Total number of calls rejected because a bulkhead was saturated, by endpoint.",
	},
	[]string{"endpoint"},
)

// All returns every skywatch metric collector for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		IngestionDuration,
		IngestionRunsTotal,
		AsteroidsUpsertedTotal,
		ApproachesUpsertedTotal,
		ThreatsUpsertedTotal,
		CircuitBreakerStateGauge,
		BulkheadRejectedTotal,
	}
}

// NewRegistry creates a Prometheus registry carrying the Go/process
// collectors plus every skywatch collector, for a run to push or dump at
// exit.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	for _, c := range All() {
		reg.MustRegister(c)
	}
	return reg
}
