package history

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	dom "github.com/hotelio/booking-events/internal/domain/history"
	"github.com/hotelio/booking-events/internal/event"
	"github.com/hotelio/booking-events/internal/infrastructure/metrics"
)

// Service is the history writer: one envelope in, one record out. Safe to
// re-invoke with the same envelope.
type Service struct {
	repo  dom.Repository
	dedup dom.DedupStore
}

// NewService builds the writer. dedup may be nil; the repository constraint
// then carries duplicate suppression alone.
func NewService(repo dom.Repository, dedup dom.DedupStore) *Service {
	return &Service{
		repo:  repo,
		dedup: dedup,
	}
}

func (s *Service) Record(ctx context.Context, evt event.BookingCreated) error {
	if s.dedup != nil {
		seen, err := s.dedup.Seen(ctx, evt.EventID)
		if err != nil {
			// Redis down must not stall consumption; fall through to the
			// database constraint.
			log.Warn().Err(err).Str("event_id", evt.EventID).Msg("Dedup check unavailable")
		} else if seen {
			metrics.DuplicatesSuppressed.Inc()
			log.Info().
				Str("event_id", evt.EventID).
				Int64("booking_id", evt.BookingID).
				Msg("Dropping redelivered event")
			return nil
		}
	}

	rec := &dom.Record{
		EventType:       evt.EventType,
		BookingID:       evt.BookingID,
		UserID:          evt.UserID,
		HotelID:         evt.HotelID,
		PromoCode:       evt.PromoCode,
		DiscountPercent: evt.DiscountPercent,
		Price:           evt.Price,
		CreatedAt:       evt.CreatedAt,
	}

	inserted, err := s.repo.Save(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to save history record: %w", err)
	}

	// The record is durable from here on; only now is the event id marked.
	// Marking earlier would make a failed save look processed on redelivery.
	if s.dedup != nil {
		if err := s.dedup.Mark(ctx, evt.EventID); err != nil {
			log.Warn().Err(err).Str("event_id", evt.EventID).Msg("Failed to mark event id")
		}
	}

	if !inserted {
		metrics.DuplicatesSuppressed.Inc()
		log.Info().
			Int64("booking_id", rec.BookingID).
			Str("event_type", rec.EventType).
			Msg("History record already exists")
		return nil
	}

	metrics.EventsConsumed.Inc()
	log.Info().
		Int64("id", rec.ID).
		Int64("booking_id", rec.BookingID).
		Msg("History record created")
	return nil
}
