package kafka

import (
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"
)

const (
	topicPartitions  = 3
	topicReplication = 1
	probeMaxAttempts = 30
	probeBackoff     = 2 * time.Second
	adminDialTimeout = 10 * time.Second
)

func adminConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Net.DialTimeout = adminDialTimeout
	return config
}

// EnsureTopic creates the events topic if it does not exist yet. An existing
// topic is not an error.
func EnsureTopic(brokers []string, topic string) error {
	admin, err := sarama.NewClusterAdmin(brokers, adminConfig())
	if err != nil {
		return fmt.Errorf("failed to create cluster admin: %w", err)
	}
	defer admin.Close()

	err = admin.CreateTopic(topic, &sarama.TopicDetail{
		NumPartitions:     topicPartitions,
		ReplicationFactor: topicReplication,
	}, false)
	if err != nil {
		var topicErr *sarama.TopicError
		if errors.As(err, &topicErr) && topicErr.Err == sarama.ErrTopicAlreadyExists {
			return nil
		}
		return fmt.Errorf("failed to create topic %s: %w", topic, err)
	}

	log.Info().Str("topic", topic).Int("partitions", topicPartitions).Msg("Topic created")
	return nil
}

// WaitForBroker probes broker connectivity with a fixed backoff. The outcome
// is reported through logs only; the services start regardless.
func WaitForBroker(brokers []string) error {
	for attempt := 1; attempt <= probeMaxAttempts; attempt++ {
		if err := Ping(brokers); err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", probeMaxAttempts).
				Msg("Kafka not ready yet")
			time.Sleep(probeBackoff)
			continue
		}
		log.Info().Strs("brokers", brokers).Msg("Connected to Kafka")
		return nil
	}
	return fmt.Errorf("kafka unreachable after %d attempts", probeMaxAttempts)
}

// Ping lists topics through the admin endpoint to verify the broker answers.
func Ping(brokers []string) error {
	admin, err := sarama.NewClusterAdmin(brokers, adminConfig())
	if err != nil {
		return err
	}
	defer admin.Close()

	if _, err := admin.ListTopics(); err != nil {
		return err
	}
	return nil
}
