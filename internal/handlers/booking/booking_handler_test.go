package booking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockBookingService struct {
	mock.Mock
}

func (m *mockBookingService) Create(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingService) Get(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingService) Properties(ctx context.Context) ([]domain.Property, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Property), args.Error(1)
}

func setupRouter(t *testing.T) (http.Handler, *mockBookingService) {
	t.Helper()
	service := new(mockBookingService)
	h := NewHandler(service, zap.NewNop())
	r := chi.NewRouter()
	r.Post("/api/bookings", h.Create)
	r.Get("/api/bookings/{id}", h.Get)
	r.Get("/api/properties", h.ListProperties)
	return r, service
}

const bookingBody = `{"propertyId":"goa-02","checkIn":"2026-04-10","nights":2,"guests":3,"guest":{"name":"Asha","email":"asha@example.com"}}`

func TestCreate_Created(t *testing.T) {
	router, service := setupRouter(t)
	service.On("Create", mock.Anything, mock.MatchedBy(func(req domain.BookingRequest) bool {
		return req.PropertyID == "goa-02" && req.Guests == 3 && req.Guest.Email == "asha@example.com"
	})).Return(&domain.Booking{ID: "bk_1", OrderID: "order_1", Status: domain.BookingStatusPendingPayment}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(bookingBody)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
	assert.Contains(t, rec.Body.String(), `"id":"bk_1"`)
	assert.Contains(t, rec.Body.String(), `"status":"pending_payment"`)
}

func TestCreate_ErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"guests_exceed", domain.NewDomainError(domain.ErrorCodeGuestsExceed, "Palm Cove allows up to 2 guests"), http.StatusBadRequest, "guests_exceed"},
		{"property_not_found", domain.NewDomainError(domain.ErrorCodePropertyNotFound, "property x not found"), http.StatusNotFound, "property_not_found"},
		{"invalid_input", domain.NewDomainError(domain.ErrorCodeValidationFailed, "checkIn must be YYYY-MM-DD"), http.StatusBadRequest, "invalid_input"},
		{"reserve_failed", domain.WrapError(domain.ErrorCodeInternalError, "failed to reserve booking", errors.New("db down")), http.StatusInternalServerError, "reserve_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, service := setupRouter(t)
			service.On("Create", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(bookingBody)))

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"`+tt.code+`"`)
			assert.Contains(t, rec.Body.String(), `"ok":false`)
		})
	}
}

func TestCreate_MalformedJSON(t *testing.T) {
	router, service := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`not json`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGet(t *testing.T) {
	router, service := setupRouter(t)
	service.On("Get", mock.Anything, "bk_1").Return(&domain.Booking{ID: "bk_1"}, nil)
	service.On("Get", mock.Anything, "bk_2").Return(nil, domain.NewDomainError(domain.ErrorCodeBookingNotFound, "booking bk_2 not found"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings/bk_1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings/bk_2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"booking_not_found"`)
}

func TestListProperties(t *testing.T) {
	router, service := setupRouter(t)
	service.On("Properties", mock.Anything).Return([]domain.Property{{ID: "blr-01", Name: "Townhouse", Price: 2499}}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/properties", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"blr-01"`)
}
