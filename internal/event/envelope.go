// Package event defines the wire contract shared by the booking producer and
// the history consumer. The envelope is an immutable snapshot of a committed
// booking; it is never rebuilt with different values for the same booking id.
package event

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TypeBookingCreated tags the only schema carried on the booking-events topic.
const TypeBookingCreated = "BOOKING_CREATED"

// BookingCreated is the payload published after a booking commit. Optional
// fields are pointers so absent and zero stay distinguishable on the wire.
type BookingCreated struct {
	EventID         string    `json:"eventId"`
	EventType       string    `json:"eventType"`
	BookingID       int64     `json:"bookingId"`
	UserID          string    `json:"userId"`
	HotelID         string    `json:"hotelId"`
	PromoCode       *string   `json:"promoCode,omitempty"`
	DiscountPercent *float64  `json:"discountPercent,omitempty"`
	Price           float64   `json:"price"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewBookingCreated snapshots a committed booking. A fresh event id is
// assigned per publish attempt.
func NewBookingCreated(bookingID int64, userID, hotelID string, promoCode *string, discountPercent *float64, price float64, createdAt time.Time) BookingCreated {
	return BookingCreated{
		EventID:         uuid.New().String(),
		EventType:       TypeBookingCreated,
		BookingID:       bookingID,
		UserID:          userID,
		HotelID:         hotelID,
		PromoCode:       promoCode,
		DiscountPercent: discountPercent,
		Price:           price,
		CreatedAt:       createdAt,
	}
}

// Key is the partition routing key. Keying by booking id keeps all events for
// one booking on one partition while spreading load across the topic; ordering
// is therefore guaranteed per booking only.
func (e BookingCreated) Key() string {
	return strconv.FormatInt(e.BookingID, 10)
}
