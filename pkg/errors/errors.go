package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
	CodeTimeout      = "TIMEOUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidInput = "INVALID_INPUT"
	CodeRateLimited  = "RATE_LIMITED"
)

// AppError is the only error type that crosses the HTTP boundary. Err
// stays server side.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

// Response is the client-facing body.
func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{Code: e.Code, Message: e.Message, Details: e.Details}
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, resource+" not found", http.StatusNotFound)
}

func Validation(message string, details map[string]any) *AppError {
	e := New(CodeValidation, message, http.StatusUnprocessableEntity)
	e.Details = details
	return e
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message, http.StatusBadRequest)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func Internal(message string, err error) *AppError {
	return Wrap(err, CodeInternal, message, http.StatusInternalServerError)
}

func Timeout(message string) *AppError {
	return New(CodeTimeout, message, http.StatusGatewayTimeout)
}

func RateLimited() *AppError {
	return New(CodeRateLimited, "Rate limit exceeded", http.StatusTooManyRequests)
}

// Transient reports a store failure that outlasted every retry.
func Transient(message string, err error) *AppError {
	return Wrap(err, CodeUnavailable, message, http.StatusServiceUnavailable)
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// AsAppError finds the AppError in err's chain. Anything else is reported
// as an internal error so causes never reach the client.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
