// Package types defines the domain model shared across the shopnotify
// service: entities, error taxonomy, context helpers, and secret handling.
package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers and services MUST use these constants
// instead of hardcoded strings.
const (
	// Validation (400)
	ErrCodeValidationMissingField  ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidRating ErrorCode = "validation_invalid_rating"
	ErrCodeValidationInvalidJSON   ErrorCode = "validation_invalid_json"

	// Configuration defects (500). These abort a send before any ledger row
	// is created: a missing or broken template and a malformed sender
	// identity are operator mistakes, not runtime conditions.
	ErrCodeConfigTemplateNotFound  ErrorCode = "config_template_not_found"
	ErrCodeConfigTemplateMalformed ErrorCode = "config_template_malformed"
	ErrCodeConfigInvalidSender     ErrorCode = "config_invalid_sender_identity"

	// Not Found (404)
	ErrCodeNotFoundOrder    ErrorCode = "not_found_order"
	ErrCodeNotFoundShipment ErrorCode = "not_found_shipment"
	ErrCodeNotFoundSend     ErrorCode = "not_found_send_record"

	// Internal/Upstream (500/502)
	ErrCodeInternalDB            ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected    ErrorCode = "internal_unexpected_error"
	ErrCodeUpstreamEmailProvider ErrorCode = "upstream_email_provider_unavailable"
	ErrCodeUpstreamUnavailable   ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited   ErrorCode = "upstream_rate_limited"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized error codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type used throughout the
// service. All domain and handler errors should be expressed as AppError to
// enable consistent error formatting, HTTP status mapping, and error chain
// support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError constructs an AppError with the given code, message, and
// optional wrapped error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsConfigError reports whether the error is a configuration-class defect
// (missing active template, malformed template source, invalid sender
// identity). Configuration errors abort the send pipeline before any ledger
// row is written.
func IsConfigError(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return strings.HasPrefix(string(appErr.Code), "config_")
}
