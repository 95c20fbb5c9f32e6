// Package response writes the JSON envelope every endpoint answers with:
// {success, message, data} on success and {success, message, error} on failure.
package response

import (
	"bhrc/backend/internal/apperrors"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody classifies a failure for clients.
type ErrorBody struct {
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// OK writes a successful response.
func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Error maps err onto a status code and writes it. Persistence and unknown
// errors are logged and answered with a generic message.
func Error(c *gin.Context, err error) {
	status, body, message := classify(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "error", err, "status", status)
	}
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message, Error: &body})
}

// BadRequest answers a request whose body or form could not be read.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{
		Success: false,
		Message: message,
		Error:   &ErrorBody{Code: "invalid_request"},
	})
}

func classify(err error) (int, ErrorBody, string) {
	var (
		validation  apperrors.Validation
		notFound    apperrors.NotFound
		unauth      apperrors.Unauthorized
		forbidden   apperrors.Forbidden
		conflict    apperrors.Conflict
		tooMany     apperrors.TooManyRequests
		unavailable apperrors.ServiceUnavailable
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, ErrorBody{Code: "validation_error", Field: validation.Field}, validation.Message()
	case errors.As(err, &notFound):
		return http.StatusNotFound, ErrorBody{Code: "not_found"}, notFound.Message()
	case errors.As(err, &unauth):
		return http.StatusUnauthorized, ErrorBody{Code: "unauthorized"}, unauth.Message()
	case errors.As(err, &forbidden):
		return http.StatusForbidden, ErrorBody{Code: "forbidden"}, forbidden.Message()
	case errors.As(err, &conflict):
		return http.StatusConflict, ErrorBody{Code: "conflict"}, conflict.Message()
	case errors.As(err, &tooMany):
		return http.StatusTooManyRequests, ErrorBody{Code: "too_many_requests"}, tooMany.Message()
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable, ErrorBody{Code: "service_unavailable"}, unavailable.Message()
	default:
		return http.StatusInternalServerError, ErrorBody{Code: "internal_error"}, "an unexpected error occurred, please try again later"
	}
}
