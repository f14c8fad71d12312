package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Reason is a stable machine-readable error identifier returned to clients.
type Reason string

const (
	ReasonNotFound          Reason = "NOT_FOUND"
	ReasonValidation        Reason = "VALIDATION_ERROR"
	ReasonBadRequest        Reason = "BAD_REQUEST"
	ReasonUnauthorized      Reason = "UNAUTHORIZED"
	ReasonForbidden         Reason = "FORBIDDEN"
	ReasonConflict          Reason = "CONFLICT"
	ReasonInsufficientStock Reason = "INSUFFICIENT_STOCK"
	ReasonDuplicateInvoice  Reason = "DUPLICATE_INVOICE"
	ReasonDuplicateKOT      Reason = "DUPLICATE_KOT"
	ReasonAlreadyPaid       Reason = "ALREADY_PAID"
	ReasonAlreadyPrinted    Reason = "ALREADY_PRINTED"
	ReasonOverPayment       Reason = "OVER_PAYMENT"
	ReasonInvalidTransition Reason = "INVALID_TRANSITION"
	ReasonRateLimited       Reason = "RATE_LIMITED"
	ReasonInternal          Reason = "INTERNAL"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Reason  Reason       `json:"reason"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches on Reason so that errors.Is(err, ErrOverPayment) holds for any
// over-payment error regardless of its message.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Reason == t.Reason
}

// Common errors
var (
	ErrNotFound          = &AppError{Code: http.StatusNotFound, Reason: ReasonNotFound, Message: "Resource not found"}
	ErrUnauthorized      = &AppError{Code: http.StatusUnauthorized, Reason: ReasonUnauthorized, Message: "Unauthorized"}
	ErrForbidden         = &AppError{Code: http.StatusForbidden, Reason: ReasonForbidden, Message: "Forbidden"}
	ErrBadRequest        = &AppError{Code: http.StatusBadRequest, Reason: ReasonBadRequest, Message: "Bad request"}
	ErrInternalServer    = &AppError{Code: http.StatusInternalServerError, Reason: ReasonInternal, Message: "Internal server error"}
	ErrConflict          = &AppError{Code: http.StatusConflict, Reason: ReasonConflict, Message: "Resource already exists"}
	ErrValidation        = &AppError{Code: http.StatusUnprocessableEntity, Reason: ReasonValidation, Message: "Validation failed"}
	ErrInsufficientStock = &AppError{Code: http.StatusConflict, Reason: ReasonInsufficientStock, Message: "Insufficient stock"}
	ErrDuplicateInvoice  = &AppError{Code: http.StatusConflict, Reason: ReasonDuplicateInvoice, Message: "An active invoice already exists for this order"}
	ErrDuplicateKOT      = &AppError{Code: http.StatusConflict, Reason: ReasonDuplicateKOT, Message: "A kitchen ticket already exists for this order"}
	ErrAlreadyPaid       = &AppError{Code: http.StatusConflict, Reason: ReasonAlreadyPaid, Message: "Invoice is already paid"}
	ErrAlreadyPrinted    = &AppError{Code: http.StatusConflict, Reason: ReasonAlreadyPrinted, Message: "Kitchen ticket has already been printed"}
	ErrOverPayment       = &AppError{Code: http.StatusUnprocessableEntity, Reason: ReasonOverPayment, Message: "Payment exceeds the remaining amount due"}
	ErrInvalidTransition = &AppError{Code: http.StatusConflict, Reason: ReasonInvalidTransition, Message: "Status transition is not allowed"}
	ErrRateLimited       = &AppError{Code: http.StatusTooManyRequests, Reason: ReasonRateLimited, Message: "Rate limit exceeded. Please try again later."}
	ErrInvalidToken      = &AppError{Code: http.StatusUnauthorized, Reason: ReasonUnauthorized, Message: "Invalid or expired token"}
)

// NewAppError creates a new application error
func NewAppError(code int, reason Reason, message string) *AppError {
	return &AppError{
		Code:    code,
		Reason:  reason,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Reason:  ReasonValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldError is shorthand for a validation error on a single field.
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Reason:  ReasonNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Reason:  ReasonConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Reason:  ReasonBadRequest,
		Message: message,
	}
}

// NewInsufficientStockError names the product whose stock cannot cover the request.
func NewInsufficientStockError(product string, available, requested int) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Reason:  ReasonInsufficientStock,
		Message: fmt.Sprintf("Insufficient stock for %s: available %d, requested %d", product, available, requested),
	}
}

// NewOverPaymentError reports the remaining amount the caller may still pay.
func NewOverPaymentError(remaining string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Reason:  ReasonOverPayment,
		Message: "Payment exceeds the remaining amount due of " + remaining,
	}
}

// NewInvalidTransitionError reports a rejected status change.
func NewInvalidTransitionError(entity, from, to string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Reason:  ReasonInvalidTransition,
		Message: fmt.Sprintf("Cannot change %s status from %s to %s", entity, from, to),
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible. Anything that is not
// an AppError is reported as INTERNAL without exposing its text.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer
}

// ReasonOf returns the reason carried by err, or INTERNAL.
func ReasonOf(err error) Reason {
	return GetAppError(err).Reason
}
