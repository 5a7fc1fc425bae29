package booking

import (
	"context"
	"errors"
	"time"

	"github.com/hotelio/booking-events/internal/event"
)

var (
	ErrUserRequired  = errors.New("user id is required")
	ErrHotelRequired = errors.New("hotel id is required")
)

// Booking is the unit of truth on the producing side. The id is assigned by
// the store on commit; the row is never mutated afterwards.
type Booking struct {
	ID              int64
	UserID          string
	HotelID         string
	PromoCode       *string
	DiscountPercent *float64
	Price           float64
	CreatedAt       time.Time
}

// Repository defines persistence for bookings.
type Repository interface {
	CreateBooking(ctx context.Context, b *Booking) error
	ListBookings(ctx context.Context, userID string) ([]*Booking, error)
}

// EventPublisher abstracts publishing booking events to Kafka (or any other
// transport). Publish is fire-and-forget: delivery failures are observed and
// logged by the implementation, never surfaced to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, evt event.BookingCreated)
}
