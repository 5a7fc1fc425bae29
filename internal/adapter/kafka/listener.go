package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"github.com/hotelio/booking-events/internal/event"
)

// Bounded in-process retries before the claim gives the record back to the
// group for redelivery.
const (
	handlerMaxAttempts = 3
	handlerBackoff     = 2 * time.Second
	sessionBackoff     = 2 * time.Second
)

// Recorder persists one received envelope. Implementations must tolerate
// being re-invoked with the same envelope.
type Recorder interface {
	Record(ctx context.Context, evt event.BookingCreated) error
}

// Listener consumes booking events in a consumer group. sarama runs one
// ConsumeClaim per assigned partition, so concurrency is capped by the
// partition count and records within a partition are handled sequentially
// in publish order. Offsets are marked only after the recorder succeeds.
type Listener struct {
	recorder       Recorder
	maxAttempts    int
	backoff        time.Duration
	sessionBackoff time.Duration
}

func NewListener(recorder Recorder) *Listener {
	return &Listener{
		recorder:       recorder,
		maxAttempts:    handlerMaxAttempts,
		backoff:        handlerBackoff,
		sessionBackoff: sessionBackoff,
	}
}

// Run consumes until ctx is cancelled, rejoining the group after rebalances
// and after claim errors (which redeliver uncommitted records). A session
// that ends with an error waits before rejoining so a persistent broker
// failure does not spin.
func (l *Listener) Run(ctx context.Context, group sarama.ConsumerGroup, topic string) error {
	for {
		err := group.Consume(ctx, []string{topic}, l)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("topic", topic).Msg("Consumer session ended with error")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.sessionBackoff):
			}
		}
	}
}

func (l *Listener) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (l *Listener) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (l *Listener) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := l.handle(sess.Context(), msg); err != nil {
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

func (l *Listener) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt event.BookingCreated
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return fmt.Errorf("failed to unmarshal event at %s/%d@%d: %w",
			msg.Topic, msg.Partition, msg.Offset, err)
	}

	log.Info().
		Str("event_id", evt.EventID).
		Str("event_type", evt.EventType).
		Int64("booking_id", evt.BookingID).
		Int32("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Msg("Received booking event")

	var err error
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		if err = l.recorder.Record(ctx, evt); err == nil {
			return nil
		}
		if attempt < l.maxAttempts {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int64("booking_id", evt.BookingID).
				Msg("Failed to record booking event, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.backoff):
			}
		}
	}
	return fmt.Errorf("failed to record booking event %s after %d attempts: %w",
		evt.EventID, l.maxAttempts, err)
}
