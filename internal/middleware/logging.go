package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-seniorcare/internal/logging"
)

// RequestIDHeader carries the request id in and out of both servers.
const RequestIDHeader = "X-Request-ID"

// RequestLogger logs every request once it completes. The level follows the
// status code: info below 400, warn for 4xx, error for 5xx. A request-scoped
// entry carrying the request id is stored in the context for handlers.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			entry := log.WithField("request_id", reqID)
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r.WithContext(logging.WithLogger(r.Context(), entry)))

			fields := entry.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration":    time.Since(start).String(),
				"bytes":       wrapped.written,
				"remote_addr": r.RemoteAddr,
			})
			switch {
			case wrapped.statusCode >= 500:
				fields.Error("http request")
			case wrapped.statusCode >= 400:
				fields.Warn("http request")
			default:
				fields.Info("http request")
			}
		})
	}
}
