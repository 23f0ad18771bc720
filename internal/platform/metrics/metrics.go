package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP holds the server-wide request collectors. Auth flow metrics live in
// internal/auth/metrics.
type HTTP struct {
	RequestLatency *prometheus.HistogramVec
	Requests       *prometheus.CounterVec
}

// NewHTTP registers collectors with the default registry.
func NewHTTP() *HTTP {
	return NewHTTPWithRegistry(prometheus.DefaultRegisterer)
}

func NewHTTPWithRegistry(reg prometheus.Registerer) *HTTP {
	factory := promauto.With(reg)
	return &HTTP{
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "podium_http_request_duration_seconds",
			Help:    "Latency of HTTP requests in seconds, labeled by route pattern and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podium_http_requests_total",
			Help: "HTTP requests, labeled by route pattern, method and status",
		}, []string{"route", "method", "status"}),
	}
}

// ObserveRequest satisfies middleware.RequestObserver.
func (m *HTTP) ObserveRequest(route, method, status string, d time.Duration) {
	m.RequestLatency.WithLabelValues(route, method).Observe(d.Seconds())
	m.Requests.WithLabelValues(route, method, status).Inc()
}
