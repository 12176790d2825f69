// Package handlers holds the JSON response helpers shared by the HTTP handlers.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/pkg/encoding"
	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies read by the handlers
const MaxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := encoding.EncodeJSON(v)
	if err != nil {
		http.Error(w, `{"ok":false,"error":"internal_error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteError maps err to a status and error code and writes it
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, code := Classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("error_code", code), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.String("error_code", code), zap.Error(err))
	}

	resp := ErrorResponse{Error: code}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) && status < http.StatusInternalServerError {
		resp.Message = domainErr.Message
	}
	WriteJSON(w, status, resp)
}

// WriteBadRequest reports a malformed request body
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_input", Message: message})
}

// Classify returns the HTTP status and lower-case error code for err
func Classify(err error) (int, string) {
	code := domain.GetErrorCode(err)
	switch {
	case code == domain.ErrorCodeInvalidSignature:
		return http.StatusUnauthorized, "invalid_signature"
	case domain.IsNotFoundError(err):
		return http.StatusNotFound, strings.ToLower(string(code))
	case code == domain.ErrorCodeGuestsExceed:
		return http.StatusBadRequest, "guests_exceed"
	case domain.IsValidationError(err):
		return http.StatusBadRequest, "invalid_input"
	case code == domain.ErrorCodeNoPaymentRecorded, code == domain.ErrorCodeNoTransfer:
		return http.StatusConflict, strings.ToLower(string(code))
	case errors.Is(err, domain.ErrGatewayTimeout):
		return http.StatusGatewayTimeout, gatewayCode(code)
	case code == domain.ErrorCodeRefundFailed, code == domain.ErrorCodeGatewayError:
		return http.StatusBadGateway, gatewayCode(code)
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func gatewayCode(code domain.ErrorCode) string {
	if code == domain.ErrorCodeRefundFailed {
		return "refund_failed"
	}
	if code == domain.ErrorCodeGatewayTimeout {
		return "gateway_timeout"
	}
	return "gateway_error"
}
