package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	apperrors "itemshare/pkg/errors"
	httputil "itemshare/pkg/http"
	"itemshare/pkg/logger"
)

// Recovery turns a handler panic into a 500. http.ErrAbortHandler is
// passed on so the server can drop the connection.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if err, ok := p.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(p)
				}

				log.Error("Panic recovered",
					"request_id", RequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"identity", r.Header.Get(httputil.HeaderUserIdentity),
					"panic", p,
					"stack", string(debug.Stack()),
				)
				_ = httputil.WriteError(w, apperrors.Internal("Internal server error", nil))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
