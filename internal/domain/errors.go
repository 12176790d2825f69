package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Webhook Errors
	ErrorCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"

	// Order Errors (ORDER_*)
	ErrorCodeOrderNotFound     ErrorCode = "ORDER_NOT_FOUND"
	ErrorCodeNoPaymentRecorded ErrorCode = "NO_PAYMENT_RECORDED"
	ErrorCodeNoTransfer        ErrorCode = "NO_TRANSFER_RECORDED"

	// Booking Errors
	ErrorCodePropertyNotFound ErrorCode = "PROPERTY_NOT_FOUND"
	ErrorCodeGuestsExceed     ErrorCode = "GUESTS_EXCEED"
	ErrorCodeBookingNotFound  ErrorCode = "BOOKING_NOT_FOUND"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationMissingField  ErrorCode = "VALIDATION_MISSING_FIELD"

	// Payment Gateway Errors (GATEWAY_*)
	ErrorCodeGatewayError   ErrorCode = "GATEWAY_ERROR"
	ErrorCodeGatewayTimeout ErrorCode = "GATEWAY_TIMEOUT"

	// Settlement Errors
	ErrorCodeRefundFailed ErrorCode = "REFUND_FAILED"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DetailReasonCode is the Details key holding the provider's own error code.
const DetailReasonCode = "reason_code"

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code, so sentinel values work with errors.Is.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ReasonCode returns the provider reason code attached to a gateway error, if any.
func (e *DomainError) ReasonCode() string {
	if e.Details == nil {
		return ""
	}
	code, _ := e.Details[DetailReasonCode].(string)
	return code
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// NewGatewayError builds a GATEWAY_ERROR carrying the provider's reason code.
func NewGatewayError(reasonCode, description string) *DomainError {
	if description == "" {
		description = "payment gateway error"
	}
	return NewDomainError(ErrorCodeGatewayError, description).WithDetail(DetailReasonCode, reasonCode)
}

// NewGatewayTimeout builds a GATEWAY_TIMEOUT for the named gateway operation.
func NewGatewayTimeout(operation string, err error) *DomainError {
	return WrapError(ErrorCodeGatewayTimeout, fmt.Sprintf("%s timed out", operation), err)
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeOrderNotFound ||
		code == ErrorCodePropertyNotFound ||
		code == ErrorCodeBookingNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid ||
		code == ErrorCodeValidationMissingField ||
		code == ErrorCodeGuestsExceed
}

// IsGatewayError checks if an error is a payment gateway error
func IsGatewayError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeGatewayError ||
		code == ErrorCodeGatewayTimeout
}

// Structured error instances
var (
	ErrInvalidSignature = NewDomainError(ErrorCodeInvalidSignature, "webhook signature verification failed")

	ErrOrderNotFound     = NewDomainError(ErrorCodeOrderNotFound, "order not found")
	ErrNoPaymentRecorded = NewDomainError(ErrorCodeNoPaymentRecorded, "order has no captured payment")
	ErrNoTransfer        = NewDomainError(ErrorCodeNoTransfer, "order has no vendor transfer")

	ErrPropertyNotFound = NewDomainError(ErrorCodePropertyNotFound, "property not found")
	ErrGuestsExceed     = NewDomainError(ErrorCodeGuestsExceed, "guest count exceeds property capacity")
	ErrBookingNotFound  = NewDomainError(ErrorCodeBookingNotFound, "booking not found")

	ErrValidationFailed        = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationAmountInvalid = NewDomainError(ErrorCodeValidationAmountInvalid, "invalid amount")
	ErrValidationMissingField  = NewDomainError(ErrorCodeValidationMissingField, "required field missing")

	ErrGatewayError   = NewDomainError(ErrorCodeGatewayError, "payment gateway error")
	ErrGatewayTimeout = NewDomainError(ErrorCodeGatewayTimeout, "payment gateway timed out")
	ErrRefundFailed   = NewDomainError(ErrorCodeRefundFailed, "refund failed")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
)
