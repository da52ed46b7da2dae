// Package apperror provides structured error handling for the platform.
// All business errors use AppError so HTTP and callers see consistent codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. The four domain codes (unit mismatch, cost blocked,
// insufficient stock, lock timeout) are the contract of the inventory core.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeUnitMismatch      = "UNIT_MISMATCH"
	CodeCostBlocked       = "COST_BLOCKED"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"

	// Concurrency (409/503)
	CodeLockTimeout            = "LOCK_TIMEOUT"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
// It implements the error interface and provides structured details.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Retryable marks transient failures the caller may retry as-is
	// (lock timeouts), as opposed to terminal rejections.
	Retryable bool `json:"retryable,omitempty"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewUnitMismatch is raised when a quantity unit cannot convert into an
// ingredient's base dimension. Always a data-entry bug, never retried.
func NewUnitMismatch(fromUnit, baseUnit string) *AppError {
	return &AppError{
		Code:       CodeUnitMismatch,
		Message:    fmt.Sprintf("cannot convert %s into base unit %s", fromUnit, baseUnit),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"from_unit": fromUnit, "base_unit": baseUnit},
	}
}

// NewCostBlocked is raised when zero-stock costing has no usable fallback.
// The system prefers a loud failure over a silently wrong price.
func NewCostBlocked(ingredientName string) *AppError {
	return &AppError{
		Code:       CodeCostBlocked,
		Message:    fmt.Sprintf("ingredient %q has zero stock, cost blocked", ingredientName),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"ingredient": ingredientName},
	}
}

// NewInsufficientStock creates a stock shortage error with enough detail
// for the caller to explain the shortfall.
func NewInsufficientStock(ingredientID string, required, available string) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"ingredient_id": ingredientID,
			"required":      required,
			"available":     available,
		},
	}
}

// NewLockTimeout creates a retryable lock acquisition failure, distinct from
// InsufficientStock: the former means "try again", the latter "cannot fulfil".
func NewLockTimeout(entity string) *AppError {
	return &AppError{
		Code:       CodeLockTimeout,
		Message:    "could not acquire row locks in time",
		HTTPStatus: http.StatusServiceUnavailable,
		Retryable:  true,
		Details:    map[string]any{"entity": entity},
	}
}

// NewConcurrentModification creates an optimistic locking error.
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "record was modified concurrently, refresh and retry",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from clients).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409).
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsAppError reports whether err carries an AppError anywhere in its chain.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetHTTPStatus returns appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode checks whether err carries the given error code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }

// IsCostBlocked checks if error is CodeCostBlocked.
func IsCostBlocked(err error) bool { return IsCode(err, CodeCostBlocked) }

// IsInsufficientStock checks if error is CodeInsufficientStock.
func IsInsufficientStock(err error) bool { return IsCode(err, CodeInsufficientStock) }

// IsRetryable reports whether the failure is transient (lock timeout).
func IsRetryable(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable
	}
	return false
}
