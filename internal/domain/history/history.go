package history

import (
	"context"
	"time"
)

// Record is the consumer-side copy of a booking-created event. CreatedAt is
// copied from the envelope, not the receipt time.
type Record struct {
	ID              int64
	EventType       string
	BookingID       int64
	UserID          string
	HotelID         string
	PromoCode       *string
	DiscountPercent *float64
	Price           float64
	CreatedAt       time.Time
}

// Repository persists history records. Save must tolerate redelivery of the
// same booking event: a second save for the same (booking id, event type) is
// a no-op that reports inserted=false.
type Repository interface {
	Save(ctx context.Context, r *Record) (inserted bool, err error)
}

// DedupStore is an optional fast-path check on the event id, consulted before
// the database constraint. Mark is called only after the record is durably
// stored; an id whose save failed stays unmarked so redelivery retries it.
type DedupStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}
