package http

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "itemshare/pkg/errors"
	"itemshare/pkg/sanitizer"
)

// HeaderUserIdentity carries the caller's identity, set by the gateway in
// front of the service.
const HeaderUserIdentity = "X-User-Identity"

func ExtractIdentity(r *http.Request) (string, error) {
	identity := sanitizer.NormalizeIdentity(r.Header.Get(HeaderUserIdentity))
	if identity == "" {
		return "", apperrors.Unauthorized("Missing " + HeaderUserIdentity + " header")
	}
	return identity, nil
}

// ParseIndex reads a non-negative position from a path segment.
func ParseIndex(raw string) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || idx < 0 {
		return 0, apperrors.InvalidInput("invalid reservation index: " + raw)
	}
	return idx, nil
}
