package middleware

import (
	"net/http"

	apperrors "itemshare/pkg/errors"
	httputil "itemshare/pkg/http"
)

// MaxRequestSize caps request bodies. Declared oversize bodies are refused
// up front; undeclared ones fail when the handler reads past the cap.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				_ = httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest,
					"Request body too large", http.StatusRequestEntityTooLarge))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
