package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics counts requests and their latency per normalized route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP collectors on reg under namespace.
func NewHTTPMetrics(reg prometheus.Registerer, namespace string) *HTTPMetrics {
	f := promauto.With(reg)
	return &HTTPMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Middleware records one observation per request.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		path := NormalizePath(r.URL.Path)
		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		m.duration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// NormalizePath replaces record identifiers with {id} to keep label
// cardinality bounded.
//
//	/senior-users/edit/3f2a...        -> /senior-users/edit/{id}
//	/senior-users/3f2a.../options/x  -> /senior-users/{id}/options/x
func NormalizePath(path string) string {
	if strings.HasPrefix(path, "/static/") {
		return "/static/"
	}
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if i > 0 && isIdentifier(s, segments[i-1]) {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

var collections = map[string]bool{
	"senior-users": true,
	"edit":         true,
	"users":        true,
	"health-plans": true,
}

func isIdentifier(segment, parent string) bool {
	if segment == "" || !collections[parent] {
		return false
	}
	return segment != "edit"
}
