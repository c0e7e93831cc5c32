package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	httputil "itemshare/pkg/http"
	"itemshare/pkg/logger"

	"github.com/google/uuid"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// HeaderRequestID is honoured when the gateway already assigned an ID.
const HeaderRequestID = "X-Request-ID"

// RequestID returns the ID RequestLogging attached to ctx, if any.
func RequestID(ctx context.Context) string {
	rid, _ := ctx.Value(RequestIDKey).(string)
	return rid
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *statusRecorder) WriteHeader(status int) {
	if rw.status == 0 {
		rw.status = status
	}
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// RequestLogging assigns a request ID and writes one record per request,
// at warn for 4xx and error for 5xx.
func RequestLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			r = r.WithContext(context.WithValue(r.Context(), RequestIDKey, requestID))
			w.Header().Set(HeaderRequestID, requestID)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}

			log.Log(r.Context(), level, "HTTP request completed",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"identity", r.Header.Get(httputil.HeaderUserIdentity),
				"remote_addr", r.RemoteAddr,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
