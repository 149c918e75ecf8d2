package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Search metrics
	SearchRequestsTotal *prometheus.CounterVec
	SearchDuration      *prometheus.HistogramVec
	SearchFallbacks     *prometheus.CounterVec

	// Credit metrics
	CreditsChargedTotal *prometheus.CounterVec
	CreditsRemaining    *prometheus.GaugeVec
}

// New creates a Metrics instance registered on its own registry. An owned
// registry (instead of the global default) lets tests construct metrics
// repeatedly without duplicate-registration panics.
func New(namespace string) (*Metrics, *prometheus.Registry) {
	if namespace == "" {
		namespace = "searchmux"
	}

	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: auto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: auto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of in-flight HTTP requests",
			},
		),

		// Search metrics
		SearchRequestsTotal: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "requests_total",
				Help:      "Total number of engine search calls",
			},
			[]string{"engine", "status"},
		),
		SearchDuration: auto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "duration_seconds",
				Help:      "Engine search duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"engine"},
		),
		SearchFallbacks: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "fallbacks_total",
				Help:      "Searches that fell back past a failed engine",
			},
			[]string{"engine"},
		),

		// Credit metrics
		CreditsChargedTotal: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "credit",
				Name:      "charged_total",
				Help:      "Total credits charged per engine",
			},
			[]string{"engine"},
		),
		CreditsRemaining: auto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "credit",
				Name:      "remaining",
				Help:      "Remaining monthly credits per engine",
			},
			[]string{"engine"},
		),
	}

	return m, reg
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSearch records one engine search call.
func (m *Metrics) RecordSearch(engine string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SearchRequestsTotal.WithLabelValues(engine, status).Inc()
	m.SearchDuration.WithLabelValues(engine).Observe(duration.Seconds())
}
