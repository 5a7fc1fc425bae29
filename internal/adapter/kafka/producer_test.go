package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelio/booking-events/internal/event"
	kafkainfra "github.com/hotelio/booking-events/internal/infrastructure/kafka"
)

// stubAsyncProducer stands in for the broker client. It records every message
// handed to it and acknowledges after an optional delay.
type stubAsyncProducer struct {
	input     chan *sarama.ProducerMessage
	successes chan *sarama.ProducerMessage
	errs      chan *sarama.ProducerError
	sent      chan *sarama.ProducerMessage
	ackDelay  time.Duration
	closeOnce sync.Once
}

func newStubAsyncProducer(ackDelay time.Duration) *stubAsyncProducer {
	s := &stubAsyncProducer{
		input:     make(chan *sarama.ProducerMessage),
		successes: make(chan *sarama.ProducerMessage, 16),
		errs:      make(chan *sarama.ProducerError, 16),
		sent:      make(chan *sarama.ProducerMessage, 16),
		ackDelay:  ackDelay,
	}
	go s.loop()
	return s
}

func (s *stubAsyncProducer) loop() {
	var offset int64
	for msg := range s.input {
		s.sent <- msg
		if s.ackDelay > 0 {
			time.Sleep(s.ackDelay)
		}
		msg.Offset = offset
		offset++
		s.successes <- msg
	}
	close(s.successes)
	close(s.errs)
}

func (s *stubAsyncProducer) AsyncClose() { s.closeOnce.Do(func() { close(s.input) }) }
func (s *stubAsyncProducer) Close() error { s.AsyncClose(); return nil }

func (s *stubAsyncProducer) Input() chan<- *sarama.ProducerMessage { return s.input }
func (s *stubAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return s.successes }
func (s *stubAsyncProducer) Errors() <-chan *sarama.ProducerError { return s.errs }

func (s *stubAsyncProducer) IsTransactional() bool { return false }
func (s *stubAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag { return sarama.ProducerTxnFlagReady }
func (s *stubAsyncProducer) BeginTxn() error { return nil }
func (s *stubAsyncProducer) CommitTxn() error { return nil }
func (s *stubAsyncProducer) AbortTxn() error { return nil }
func (s *stubAsyncProducer) AddOffsetsToTxn(map[string][]*sarama.PartitionOffsetMetadata, string) error {
	return nil
}
func (s *stubAsyncProducer) AddMessageToTxn(*sarama.ConsumerMessage, string, *string) error {
	return nil
}

func validEvent() event.BookingCreated {
	return event.BookingCreated{
		EventID:   "e-1",
		EventType: event.TypeBookingCreated,
		BookingID: 42,
		UserID:    "u1",
		HotelID:   "h1",
		Price:     100,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublish_SendsKeyedRecord(t *testing.T) {
	stub := newStubAsyncProducer(0)
	producer := kafkainfra.NewProducerFromAsync(stub)
	defer producer.Close()

	publisher := NewPublisher(producer, "booking-events")
	publisher.Publish(context.Background(), validEvent())

	select {
	case msg := <-stub.sent:
		assert.Equal(t, "booking-events", msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "42", string(key), "partition key is the booking id")

		value, err := msg.Value.Encode()
		require.NoError(t, err)
		var got event.BookingCreated
		require.NoError(t, json.Unmarshal(value, &got))
		assert.Equal(t, validEvent(), got)
	case <-time.After(time.Second):
		t.Fatal("no message reached the producer")
	}
}

func TestPublish_ReturnsBeforeAck(t *testing.T) {
	stub := newStubAsyncProducer(500 * time.Millisecond)
	producer := kafkainfra.NewProducerFromAsync(stub)
	defer producer.Close()

	publisher := NewPublisher(producer, "booking-events")

	start := time.Now()
	publisher.Publish(context.Background(), validEvent())
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 200*time.Millisecond, "Publish must not wait for broker acknowledgement")

	select {
	case <-stub.sent:
	case <-time.After(time.Second):
		t.Fatal("message never handed to the client")
	}
}

func TestPublish_SkipsInvalidEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*event.BookingCreated)
	}{
		{name: "missing booking id", mutate: func(e *event.BookingCreated) { e.BookingID = 0 }},
		{name: "missing price", mutate: func(e *event.BookingCreated) { e.Price = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStubAsyncProducer(0)
			producer := kafkainfra.NewProducerFromAsync(stub)
			defer producer.Close()

			publisher := NewPublisher(producer, "booking-events")
			evt := validEvent()
			tt.mutate(&evt)
			publisher.Publish(context.Background(), evt)

			select {
			case <-stub.sent:
				t.Fatal("invalid envelope must not be sent")
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
}
