package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
)

// NewConsumerGroup builds a consumer group that starts from the earliest
// offset when no commit exists yet. Offsets are committed by the handler
// after successful processing, giving at-least-once delivery.
func NewConsumerGroup(brokers []string, groupID string) (sarama.ConsumerGroup, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	return group, nil
}
