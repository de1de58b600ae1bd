package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/canvasflow/logger"
)

// RequestLogger logs every request with its status and duration. Probe
// endpoints are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbeEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			duration := time.Since(start)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, sw.Status(),
				logger.FieldDuration, duration.Milliseconds(),
				"bytes", sw.bytes,
			)
			if duration > 500*time.Millisecond && !strings.HasSuffix(r.URL.Path, "/events") {
				fields["slow"] = true
			}
			logByStatus(log.WithContext(r.Context()), fields, sw.Status())
		})
	}
}

func isProbeEndpoint(path string) bool {
	switch path {
	case "/health", "/readiness", "/alive", "/version":
		return true
	}
	return false
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("request completed", fields)
	case status >= 400:
		log.Warn("request completed", fields)
	default:
		log.Debug("request completed", fields)
	}
}
