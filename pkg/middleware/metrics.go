package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics returns middleware that records request counts and latency for the
// named module. Requests are labelled by the matched route pattern so path
// parameters do not explode cardinality.
func Metrics(reg prometheus.Registerer, module string) func(http.Handler) http.Handler {
	f := promauto.With(reg)
	constLabels := prometheus.Labels{"module": module}

	requests := f.NewCounterVec(prometheus.CounterOpts{
		Name:        "veridid_http_requests_total",
		Help:        "HTTP requests by route, method, and status code",
		ConstLabels: constLabels,
	}, []string{"route", "method", "code"})

	latency := f.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "veridid_http_request_duration_seconds",
		Help:        "HTTP request latency by route",
		ConstLabels: constLabels,
		Buckets:     prometheus.DefBuckets,
	}, []string{"route", "method"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
			latency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
