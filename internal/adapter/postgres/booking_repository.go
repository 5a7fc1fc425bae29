package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	dom "github.com/hotelio/booking-events/internal/domain/booking"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) dom.Repository {
	return &BookingRepository{pool: pool}
}

// CreateBooking commits the row and fills in the store-assigned id. The id is
// only known after this returns.
func (r *BookingRepository) CreateBooking(ctx context.Context, b *dom.Booking) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO booking (user_id, hotel_id, promo_code, discount_percent, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, b.UserID, b.HotelID, b.PromoCode, b.DiscountPercent, b.Price, b.CreatedAt).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) ListBookings(ctx context.Context, userID string) ([]*dom.Booking, error) {
	query := `
		SELECT id, user_id, hotel_id, promo_code, discount_percent, price, created_at
		FROM booking
		ORDER BY created_at, id`
	args := []any{}
	if userID != "" {
		query = `
			SELECT id, user_id, hotel_id, promo_code, discount_percent, price, created_at
			FROM booking
			WHERE user_id = $1
			ORDER BY created_at, id`
		args = append(args, userID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*dom.Booking
	for rows.Next() {
		b := &dom.Booking{}
		if err := rows.Scan(&b.ID, &b.UserID, &b.HotelID, &b.PromoCode, &b.DiscountPercent, &b.Price, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
