// Package metrics exposes Prometheus metrics for the introspection endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Introspection records the outcome of introspection requests.
// A nil *Introspection is valid and records nothing.
type Introspection struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewIntrospection(registerer prometheus.Registerer) (*Introspection, error) {
	m := &Introspection{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "introspect_requests_total",
				Help: "Total number of token introspection requests by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "introspect_request_duration_seconds",
				Help:    "Token introspection duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Introspection) Observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// NewRegistry returns a registry with the Go runtime and process collectors
// already registered.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
