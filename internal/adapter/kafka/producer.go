package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	dom "github.com/hotelio/booking-events/internal/domain/booking"
	"github.com/hotelio/booking-events/internal/event"
	"github.com/hotelio/booking-events/internal/infrastructure/kafka"
)

// Publisher turns committed bookings into topic records. Publish never blocks
// on broker acknowledgement and never reports failure to the caller: a booking
// stays committed whether or not its event reaches the topic.
type Publisher struct {
	producer *kafka.Producer
	topic    string
}

func NewPublisher(producer *kafka.Producer, topic string) dom.EventPublisher {
	return &Publisher{producer: producer, topic: topic}
}

func (p *Publisher) Publish(ctx context.Context, evt event.BookingCreated) {
	if evt.BookingID == 0 {
		log.Error().Str("event_id", evt.EventID).Msg("Refusing to publish event without booking id")
		return
	}
	if evt.Price == 0 {
		log.Error().Int64("booking_id", evt.BookingID).Msg("Refusing to publish event without price")
		return
	}

	data, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Int64("booking_id", evt.BookingID).Msg("Failed to marshal event")
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(evt.Key()),
		Value: sarama.ByteEncoder(data),
	}

	if !p.producer.Send(msg) {
		log.Error().
			Str("topic", p.topic).
			Int64("booking_id", evt.BookingID).
			Msg("Send abandoned: producer blocked past max block time")
		return
	}

	log.Info().
		Str("topic", p.topic).
		Str("event_id", evt.EventID).
		Int64("booking_id", evt.BookingID).
		Msg("Queued booking event")
}
