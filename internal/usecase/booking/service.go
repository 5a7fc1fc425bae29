package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	dom "github.com/hotelio/booking-events/internal/domain/booking"
	"github.com/hotelio/booking-events/internal/event"
)

// baseNightlyRate prices a stay before any promo discount.
const baseNightlyRate = 100.0

// promoDiscounts maps known promo codes to their discount percent. Unknown
// codes are kept on the booking but grant nothing.
var promoDiscounts = map[string]float64{
	"SUMMER10": 10,
	"WINTER15": 15,
	"VIP20":    20,
}

type CreateBookingRequest struct {
	UserID    string
	HotelID   string
	PromoCode string
}

type Service struct {
	repo      dom.Repository
	publisher dom.EventPublisher
}

func NewService(repo dom.Repository, publisher dom.EventPublisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
	}
}

// CreateBooking commits the booking row, then fires the booking-created event.
// The publish is best effort: a failed delivery never rolls the booking back,
// and a failed commit means no event is ever built.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*dom.Booking, error) {
	if req.UserID == "" {
		return nil, dom.ErrUserRequired
	}
	if req.HotelID == "" {
		return nil, dom.ErrHotelRequired
	}

	b := &dom.Booking{
		UserID:    req.UserID,
		HotelID:   req.HotelID,
		Price:     baseNightlyRate,
		CreatedAt: time.Now().UTC(),
	}
	if req.PromoCode != "" {
		promo := req.PromoCode
		b.PromoCode = &promo
		if discount, ok := promoDiscounts[promo]; ok {
			b.DiscountPercent = &discount
			b.Price = baseNightlyRate * (1 - discount/100)
		}
	}

	if err := s.repo.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	log.Info().
		Int64("booking_id", b.ID).
		Str("user_id", b.UserID).
		Str("hotel_id", b.HotelID).
		Msg("Booking created")

	evt := event.NewBookingCreated(b.ID, b.UserID, b.HotelID, b.PromoCode, b.DiscountPercent, b.Price, b.CreatedAt)
	s.publisher.Publish(ctx, evt)

	return b, nil
}

func (s *Service) ListBookings(ctx context.Context, userID string) ([]*dom.Booking, error) {
	bookings, err := s.repo.ListBookings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}
