package redis

import (
	"context"
	"fmt"
	"time"

	dom "github.com/hotelio/booking-events/internal/domain/history"
	"github.com/hotelio/booking-events/internal/infrastructure/redis"
)

const dedupTTL = 7 * 24 * time.Hour

// DedupStore remembers persisted event ids so redelivered records can be
// dropped before touching Postgres. Seen is a plain read; ids are marked
// separately, after the record is stored, so a failed save leaves the id
// unmarked and redelivery goes back to the database. The database constraint
// stays the authority if Redis loses the key.
type DedupStore struct {
	client *redis.Client
}

func NewDedupStore(client *redis.Client) dom.DedupStore {
	return &DedupStore{client: client}
}

func (s *DedupStore) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, dedupKey(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check event id: %w", err)
	}
	return n > 0, nil
}

func (s *DedupStore) Mark(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, dedupKey(eventID), time.Now().Unix(), dedupTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark event id: %w", err)
	}
	return nil
}

func dedupKey(eventID string) string {
	return fmt.Sprintf("history:event:%s", eventID)
}
