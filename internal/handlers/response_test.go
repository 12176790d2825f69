package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"signature", domain.ErrInvalidSignature, http.StatusUnauthorized, "invalid_signature"},
		{"order_not_found", domain.NewDomainError(domain.ErrorCodeOrderNotFound, "x"), http.StatusNotFound, "order_not_found"},
		{"booking_not_found", domain.NewDomainError(domain.ErrorCodeBookingNotFound, "x"), http.StatusNotFound, "booking_not_found"},
		{"property_not_found", domain.NewDomainError(domain.ErrorCodePropertyNotFound, "x"), http.StatusNotFound, "property_not_found"},
		{"guests_exceed", domain.NewDomainError(domain.ErrorCodeGuestsExceed, "x"), http.StatusBadRequest, "guests_exceed"},
		{"validation", domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid, "x"), http.StatusBadRequest, "invalid_input"},
		{"no_payment", domain.NewDomainError(domain.ErrorCodeNoPaymentRecorded, "x"), http.StatusConflict, "no_payment_recorded"},
		{"no_transfer", domain.NewDomainError(domain.ErrorCodeNoTransfer, "x"), http.StatusConflict, "no_transfer_recorded"},
		{"gateway_error", domain.NewGatewayError("BAD_REQUEST_ERROR", "x"), http.StatusBadGateway, "gateway_error"},
		{"gateway_timeout", domain.NewGatewayTimeout("release_hold", context.DeadlineExceeded), http.StatusGatewayTimeout, "gateway_timeout"},
		{"refund_failed", domain.WrapError(domain.ErrorCodeRefundFailed, "x", domain.NewGatewayError("SERVER_ERROR", "")), http.StatusBadGateway, "refund_failed"},
		{"refund_timeout", domain.WrapError(domain.ErrorCodeRefundFailed, "x", domain.NewGatewayTimeout("create_refund", context.DeadlineExceeded)), http.StatusGatewayTimeout, "refund_failed"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestWriteError_HidesInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zap.NewNop(), domain.WrapError(domain.ErrorCodeDatabaseError, "pq: relation missing", errors.New("x")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"internal_error"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestWriteError_IncludesClientMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zap.NewNop(), domain.NewDomainError(domain.ErrorCodeValidationMissingField, "order_id is required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"invalid_input","message":"order_id is required"}`, rec.Body.String())
}
