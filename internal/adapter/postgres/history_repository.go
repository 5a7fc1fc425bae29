package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	dom "github.com/hotelio/booking-events/internal/domain/history"
)

type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) dom.Repository {
	return &HistoryRepository{pool: pool}
}

// Save inserts the record, relying on the unique (booking_id, event_type)
// constraint to make redelivered envelopes a no-op. inserted=false means a
// row for this booking event already exists.
func (r *HistoryRepository) Save(ctx context.Context, rec *dom.Record) (bool, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO booking_history (event_type, booking_id, user_id, hotel_id, promo_code, discount_percent, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (booking_id, event_type) DO NOTHING
		RETURNING id
	`, rec.EventType, rec.BookingID, rec.UserID, rec.HotelID, rec.PromoCode, rec.DiscountPercent, rec.Price, rec.CreatedAt).Scan(&rec.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert history record: %w", err)
	}
	return true, nil
}
