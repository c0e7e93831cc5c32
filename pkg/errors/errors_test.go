package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("write conflict")

	tests := []struct {
		name    string
		err     *AppError
		code    string
		status  int
		message string
	}{
		{"not found", NotFound("Item"), CodeNotFound, http.StatusNotFound, "Item not found"},
		{"validation", Validation("end must be after start", nil), CodeValidation, http.StatusUnprocessableEntity, "end must be after start"},
		{"bad request", BadRequest("Invalid request body"), CodeBadRequest, http.StatusBadRequest, "Invalid request body"},
		{"invalid input", InvalidInput("Invalid item ID format"), CodeInvalidInput, http.StatusBadRequest, "Invalid item ID format"},
		{"unauthorized", Unauthorized("Missing identity"), CodeUnauthorized, http.StatusUnauthorized, "Missing identity"},
		{"forbidden", Forbidden("not the item owner"), CodeForbidden, http.StatusForbidden, "not the item owner"},
		{"conflict", Conflict("item unavailable"), CodeConflict, http.StatusConflict, "item unavailable"},
		{"internal", Internal("boom", cause), CodeInternal, http.StatusInternalServerError, "boom"},
		{"timeout", Timeout("Request timed out"), CodeTimeout, http.StatusGatewayTimeout, "Request timed out"},
		{"rate limited", RateLimited(), CodeRateLimited, http.StatusTooManyRequests, "Rate limit exceeded"},
		{"transient", Transient("Item store is busy, please retry", cause), CodeUnavailable, http.StatusServiceUnavailable, "Item store is busy, please retry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode())
			assert.Equal(t, tt.message, tt.err.Message)
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	plain := Conflict("item unavailable")
	assert.Equal(t, "CONFLICT: item unavailable", plain.Error())
	assert.Nil(t, plain.Unwrap())

	cause := errors.New("database connection failed")
	wrapped := Internal("internal error", cause)
	assert.Equal(t, "INTERNAL_ERROR: internal error (caused by: database connection failed)", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestAsAppError(t *testing.T) {
	conflict := Conflict("slot conflicts or insufficient gap")
	assert.Same(t, conflict, AsAppError(fmt.Errorf("reserve: %w", conflict)))
	assert.True(t, IsAppError(fmt.Errorf("reserve: %w", conflict)))
	assert.True(t, HasCode(fmt.Errorf("reserve: %w", conflict), CodeConflict))
	assert.False(t, HasCode(conflict, CodeNotFound))

	raw := errors.New("mongo: no reachable servers")
	got := AsAppError(raw)
	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, "An unexpected error occurred", got.Message)
	assert.ErrorIs(t, got, raw)
	assert.False(t, IsAppError(raw))
}

func TestResponse_HidesCause(t *testing.T) {
	err := Wrap(errors.New("queue index 3"), CodeNotFound, "reservation not found", http.StatusNotFound)

	data, marshalErr := json.Marshal(err.Response())
	require.NoError(t, marshalErr)
	assert.JSONEq(t, `{"code":"NOT_FOUND","message":"reservation not found"}`, string(data))

	withDetails := Validation("Validation failed", map[string]any{"field": "end"}).Response()
	assert.Equal(t, map[string]any{"field": "end"}, withDetails.Details)
}
