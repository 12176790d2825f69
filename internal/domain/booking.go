package domain

import (
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Booking pricing constants. Amounts are in major currency units.
const (
	ServiceFee         int64 = 299
	MinorUnitsPerMajor int64 = 100
	CheckInLayout            = "2006-01-02"
	defaultMaxGuests         = 2

	// MaxNightsPerBooking and MaxGuestsPerBooking bound a single booking request.
	MaxNightsPerBooking = 30
	MaxGuestsPerBooking = 20
)

// TaxRate applied to the room subtotal.
var TaxRate = decimal.RequireFromString("0.12")

var maxAmountMinor = decimal.NewFromInt(math.MaxInt64)

// BookingStatus tracks a reservation through payment
type BookingStatus string

const (
	BookingStatusReserved       BookingStatus = "reserved"
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	BookingStatusCancelled      BookingStatus = "cancelled"
)

// Property is a bookable stay from the catalog.
type Property struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	City      string  `json:"city"`
	Area      string  `json:"area,omitempty"`
	Country   string  `json:"country,omitempty"`
	Type      string  `json:"type,omitempty"`
	Price     int64   `json:"price"`
	Currency  string  `json:"currency,omitempty"`
	MaxGuests int     `json:"maxGuests,omitempty"`
	Rating    float64 `json:"rating,omitempty"`
	Image     string  `json:"image,omitempty"`
}

// Capacity returns the guest limit, defaulting when the catalog omits it.
func (p Property) Capacity() int {
	if p.MaxGuests <= 0 {
		return defaultMaxGuests
	}
	return p.MaxGuests
}

// CurrencyOrDefault returns the property's currency or INR.
func (p Property) CurrencyOrDefault() string {
	if p.Currency == "" {
		return DefaultCurrency
	}
	return p.Currency
}

// GuestContact identifies the person holding the reservation.
type GuestContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// BookingRequest is what the site submits to reserve a stay.
type BookingRequest struct {
	PropertyID string       `json:"propertyId"`
	CheckIn    string       `json:"checkIn"`
	Nights     int          `json:"nights"`
	Guests     int          `json:"guests"`
	Guest      GuestContact `json:"guest"`
	Requests   string       `json:"requests,omitempty"`
}

// Normalize trims text fields and floors nights and guests at one.
func (r *BookingRequest) Normalize() {
	r.PropertyID = strings.TrimSpace(r.PropertyID)
	r.CheckIn = strings.TrimSpace(r.CheckIn)
	r.Guest.Name = strings.TrimSpace(r.Guest.Name)
	r.Guest.Email = strings.TrimSpace(r.Guest.Email)
	r.Guest.Phone = strings.TrimSpace(r.Guest.Phone)
	r.Requests = strings.TrimSpace(r.Requests)
	if r.Nights < 1 {
		r.Nights = 1
	}
	if r.Guests < 1 {
		r.Guests = 1
	}
}

// Validate checks the fields that do not depend on the catalog.
func (r BookingRequest) Validate() (time.Time, error) {
	if r.PropertyID == "" {
		return time.Time{}, NewDomainError(ErrorCodeValidationMissingField, "propertyId is required")
	}
	if r.CheckIn == "" {
		return time.Time{}, NewDomainError(ErrorCodeValidationMissingField, "checkIn is required")
	}
	checkIn, err := time.Parse(CheckInLayout, r.CheckIn)
	if err != nil {
		return time.Time{}, WrapError(ErrorCodeValidationFailed, "checkIn must be YYYY-MM-DD", err)
	}
	if r.Nights > MaxNightsPerBooking {
		return time.Time{}, NewDomainError(ErrorCodeValidationFailed,
			fmt.Sprintf("nights must be between 1 and %d", MaxNightsPerBooking))
	}
	if r.Guests > MaxGuestsPerBooking {
		return time.Time{}, NewDomainError(ErrorCodeValidationFailed,
			fmt.Sprintf("guests must be between 1 and %d", MaxGuestsPerBooking))
	}
	if r.Guest.Name == "" || r.Guest.Email == "" {
		return time.Time{}, NewDomainError(ErrorCodeValidationMissingField, "guest name and email are required")
	}
	if _, err := mail.ParseAddress(r.Guest.Email); err != nil {
		return time.Time{}, WrapError(ErrorCodeValidationFailed, "guest email is invalid", err)
	}
	return checkIn, nil
}

// BookingTotals is the price breakdown shown to the guest.
type BookingTotals struct {
	NightlyRate int64  `json:"nightlyRate"`
	Nights      int    `json:"nights"`
	Subtotal    int64  `json:"subtotal"`
	Tax         int64  `json:"tax"`
	Fees        int64  `json:"fees"`
	Total       int64  `json:"total"`
	Currency    string `json:"currency"`
}

// CalculateBookingTotals prices a stay: subtotal = rate*nights, tax = round(subtotal*0.12),
// plus the flat service fee.
func CalculateBookingTotals(property Property, nights int) BookingTotals {
	if nights < 1 {
		nights = 1
	}
	subtotal := property.Price * int64(nights)
	tax := decimal.NewFromInt(subtotal).Mul(TaxRate).Round(0).IntPart()
	return BookingTotals{
		NightlyRate: property.Price,
		Nights:      nights,
		Subtotal:    subtotal,
		Tax:         tax,
		Fees:        ServiceFee,
		Total:       subtotal + tax + ServiceFee,
		Currency:    property.CurrencyOrDefault(),
	}
}

// AmountDueMinor converts the booking total to minor units for the payment order.
func (t BookingTotals) AmountDueMinor() int64 {
	return t.Total * MinorUnitsPerMajor
}

// Booking is a confirmed reservation hold with its payment order.
type Booking struct {
	ID           string        `json:"id"`
	OrderID      string        `json:"orderId"`
	PropertyID   string        `json:"propertyId"`
	PropertyName string        `json:"propertyName"`
	City         string        `json:"city"`
	CheckIn      string        `json:"checkIn"`
	CheckOut     string        `json:"checkOut"`
	Nights       int           `json:"nights"`
	Guests       int           `json:"guests"`
	Guest        GuestContact  `json:"guest"`
	Requests     string        `json:"requests,omitempty"`
	Totals       BookingTotals `json:"totals"`
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// NewBooking assembles a booking for a validated request against a catalog property.
func NewBooking(id, orderID string, req BookingRequest, property Property, checkIn, now time.Time) (*Booking, error) {
	if req.Guests > property.Capacity() {
		return nil, NewDomainError(ErrorCodeGuestsExceed,
			fmt.Sprintf("%s allows up to %d guests", property.Name, property.Capacity()))
	}
	if !amountDueFits(property, req.Nights) {
		return nil, NewDomainError(ErrorCodeValidationAmountInvalid, "booking total is too large").
			WithDetail("property_id", property.ID)
	}
	totals := CalculateBookingTotals(property, req.Nights)
	return &Booking{
		ID:           id,
		OrderID:      orderID,
		PropertyID:   property.ID,
		PropertyName: property.Name,
		City:         property.City,
		CheckIn:      checkIn.Format(CheckInLayout),
		CheckOut:     checkIn.AddDate(0, 0, totals.Nights).Format(CheckInLayout),
		Nights:       totals.Nights,
		Guests:       req.Guests,
		Guest:        req.Guest,
		Requests:     req.Requests,
		Totals:       totals,
		Status:       BookingStatusPendingPayment,
		CreatedAt:    now,
	}, nil
}

// amountDueFits reports whether the order amount for the stay fits in int64 minor units.
func amountDueFits(property Property, nights int) bool {
	if nights < 1 {
		nights = 1
	}
	subtotal := decimal.NewFromInt(property.Price).Mul(decimal.NewFromInt(int64(nights)))
	due := subtotal.Add(subtotal.Mul(TaxRate).Round(0)).
		Add(decimal.NewFromInt(ServiceFee)).
		Mul(decimal.NewFromInt(MinorUnitsPerMajor))
	return due.LessThanOrEqual(maxAmountMinor)
}
