package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sundial_http_requests_total",
		Help: "The total number of HTTP requests by method and status code",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sundial_http_request_duration_seconds",
		Help:    "The HTTP request duration in seconds by method",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sundial_http_rate_limited_total",
		Help: "The total number of requests rejected by the rate limiter",
	})
)

// Metrics records a request counter and duration histogram. Labels stay at
// method/status granularity to keep cardinality bounded; paths carry user
// supplied ids.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			mw := &metricsWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(mw, r)

			requestsTotal.WithLabelValues(r.Method, strconv.Itoa(mw.status)).Inc()
			requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
			if mw.status == http.StatusTooManyRequests {
				rateLimitedTotal.Inc()
			}
		})
	}
}

type metricsWriter struct {
	http.ResponseWriter
	status int
}

func (w *metricsWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
