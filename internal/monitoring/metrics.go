package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)
)

// Prometheus metrics for the CORS preview server
var (
	RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cors_setup_requests_total",
			Help: "Total number of HTTP requests served by the preview server",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cors_setup_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	PreflightTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cors_setup_preflight_total",
			Help: "Preflight requests evaluated against the CORS configuration",
		},
		[]string{"result"},
	)

	CrossOriginRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cors_setup_cross_origin_requests_total",
			Help: "Non-preflight requests carrying an Origin header",
		},
		[]string{"result"},
	)
)

// RecordCORSDecision records the outcome of a CORS evaluation
func RecordCORSDecision(preflight bool, result string) {
	if preflight {
		PreflightTotal.WithLabelValues(result).Inc()
		return
	}
	CrossOriginRequestsTotal.WithLabelValues(result).Inc()
}

// Handler exposes the registered metrics
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
