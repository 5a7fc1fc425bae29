package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"github.com/hotelio/booking-events/internal/infrastructure/metrics"
)

// Delivery knobs. Idempotent send forces MaxOpenRequests down to 1 in sarama,
// which also preserves per-partition ordering under retries.
const (
	producerRetries = 3
	requestTimeout  = 30 * time.Second
	maxBlockTime    = 60 * time.Second
	deliveryTimeout = 120 * time.Second
)

// Producer wraps a sarama.AsyncProducer. Sends are acknowledged only by the
// full replica set; the outcome of every send is observed on the success and
// error channels and logged, never returned to the caller.
type Producer struct {
	producer sarama.AsyncProducer
	done     chan struct{}
}

func NewProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = producerRetries
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Producer.Timeout = requestTimeout
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return NewProducerFromAsync(producer), nil
}

// NewProducerFromAsync wraps an existing client. Used by tests to substitute
// a broker double.
func NewProducerFromAsync(producer sarama.AsyncProducer) *Producer {
	p := &Producer{
		producer: producer,
		done:     make(chan struct{}),
	}
	go p.drain()
	return p
}

// drain is the completion callback: one goroutine observes every send outcome.
func (p *Producer) drain() {
	defer close(p.done)

	successes := p.producer.Successes()
	errors := p.producer.Errors()
	for successes != nil || errors != nil {
		select {
		case msg, ok := <-successes:
			if !ok {
				successes = nil
				continue
			}
			metrics.EventsPublished.Inc()
			log.Info().
				Str("topic", msg.Topic).
				Int32("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("Event delivered")
		case perr, ok := <-errors:
			if !ok {
				errors = nil
				continue
			}
			metrics.PublishFailures.Inc()
			log.Error().
				Err(perr.Err).
				Str("topic", perr.Msg.Topic).
				Msg("Event delivery failed")
		}
	}
}

// Send enqueues a message, blocking at most maxBlockTime. It reports whether
// the message was handed to the client; delivery itself is asynchronous.
func (p *Producer) Send(msg *sarama.ProducerMessage) bool {
	select {
	case p.producer.Input() <- msg:
		return true
	case <-time.After(maxBlockTime):
		return false
	}
}

// Close flushes in-flight sends, waiting at most the delivery timeout budget.
func (p *Producer) Close() error {
	p.producer.AsyncClose()
	select {
	case <-p.done:
		return nil
	case <-time.After(deliveryTimeout):
		return fmt.Errorf("producer shutdown timed out after %s", deliveryTimeout)
	}
}
