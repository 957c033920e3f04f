package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/codemastery/internal/api/middleware"
	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// Error codes carried in the error envelope.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeInvalid      = "INVALID_ARGUMENT"
	CodeConflict     = "CONFLICT"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeTimeout      = "TIMEOUT"
	CodeInternal     = "INTERNAL_ERROR"
)

// APIError represents a structured API error
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// NewAPIError creates a new API error
func NewAPIError(code string, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// WithDetails adds details to the error
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *APIError) WithCause(err error) *APIError {
	e.cause = err
	return e
}

// ErrorResponse is the JSON structure for error responses
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// MessageResponse confirms an operation without a body of its own
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteError writes an error response and logs it with request context
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, apiErr *APIError) {
	attrs := []any{
		"code", apiErr.Code,
		"message", apiErr.Message,
		"status", statusCode,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetRequestID(r.Context()),
	}
	if apiErr.cause != nil {
		attrs = append(attrs, "cause", apiErr.cause.Error())
	}

	if statusCode >= 500 {
		slog.Error("api error", attrs...)
	} else {
		slog.Warn("api error", attrs...)
	}

	WriteJSON(w, statusCode, ErrorResponse{Error: apiErr})
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// WriteServiceError maps a service error onto the status its category
// implies. Conflicts are reported as 400 alongside validation failures.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := classify(err)
	WriteError(w, r, status, apiErr)
}

func classify(err error) (int, *APIError) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, NewAPIError(CodeInvalid, validation.Error()).
			WithDetails(map[string]string{"field": validation.Field})
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, NewAPIError(CodeInvalid, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest, NewAPIError(CodeConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, NewAPIError(CodeNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, NewAPIError(CodeUnauthorized, unauthorizedMessage(err)).WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, NewAPIError(CodeTimeout, "request timed out").WithCause(err)
	default:
		return http.StatusInternalServerError, NewAPIError(CodeInternal, "internal server error").WithCause(err)
	}
}

// unauthorizedMessage hides token parser details from clients
func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid or expired token"
	}
	return "authentication required"
}

// Unauthorized reports a missing or rejected credential
func Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusUnauthorized, NewAPIError(CodeUnauthorized, message))
}

// Deleted confirms the removal of an entity
func Deleted(w http.ResponseWriter, entity domain.Entity) {
	WriteJSON(w, http.StatusOK, MessageResponse{Message: string(entity) + " deleted successfully"})
}
