package middleware

import (
	"net/http"
	"strings"

	apperrors "itemshare/pkg/errors"
	httputil "itemshare/pkg/http"
	"itemshare/pkg/logger"
)

// ContentTypeValidation requires JSON on write requests that carry a body.
// Bodyless commands such as relinquish pass through.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiresContentType(r) {
				contentType := extractContentType(r.Header.Get("Content-Type"))

				if contentType != "application/json" {
					log.Warn("Invalid Content-Type header",
						"request_id", RequestID(r.Context()),
						"content_type", contentType,
						"path", r.URL.Path,
						"method", r.Method,
					)
					_ = httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest,
						"Content-Type must be application/json", http.StatusUnsupportedMediaType))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requiresContentType(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	}
	return false
}

func extractContentType(header string) string {
	if header == "" {
		return ""
	}

	parts := strings.Split(header, ";")
	return strings.ToLower(strings.TrimSpace(parts[0]))
}
