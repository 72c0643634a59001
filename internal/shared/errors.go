package shared

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

type APIError struct {
	Code    string `json:"code" example:"UNAUTHORIZED"`
	Message string `json:"message" example:"Authentication required"`
	Details any    `json:"details,omitempty" swaggertype:"object"`
}

// ErrorEnvelope is the wire shape of every error response.
type ErrorEnvelope struct {
	Error *APIError `json:"error"`
}

func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

func (e *APIError) ToHTTP(status int) *echo.HTTPError {
	return echo.NewHTTPError(status, ErrorEnvelope{Error: e})
}

func BadRequest(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusBadRequest)
}

func Unauthorized(message string) *echo.HTTPError {
	return NewAPIError("UNAUTHORIZED", message).ToHTTP(http.StatusUnauthorized)
}

func Forbidden(message string) *echo.HTTPError {
	return NewAPIError("FORBIDDEN", message).ToHTTP(http.StatusForbidden)
}

func NotFound(message string) *echo.HTTPError {
	return NewAPIError("NOT_FOUND", message).ToHTTP(http.StatusNotFound)
}

func Conflict(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusConflict)
}

func InternalError(message string) *echo.HTTPError {
	return NewAPIError("INTERNAL_ERROR", message).ToHTTP(http.StatusInternalServerError)
}
