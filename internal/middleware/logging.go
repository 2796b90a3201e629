package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// redactedQueryParams are never written to logs.
var redactedQueryParams = []string{"token"}

// RequestLogger logs each request as a structured record. Credentials
// passed in the query string are masked.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("HTTP request",
					"request_id", chiMiddleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"query", redactQuery(r.URL),
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"remote_addr", r.RemoteAddr,
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func redactQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	q := u.Query()
	for _, key := range redactedQueryParams {
		if q.Has(key) {
			q.Set(key, "REDACTED")
		}
	}
	return q.Encode()
}
