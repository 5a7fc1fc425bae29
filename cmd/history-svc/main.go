package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	kafkaadp "github.com/hotelio/booking-events/internal/adapter/kafka"
	postgresadp "github.com/hotelio/booking-events/internal/adapter/postgres"
	redisadp "github.com/hotelio/booking-events/internal/adapter/redis"
	"github.com/hotelio/booking-events/internal/config"
	kafkainfra "github.com/hotelio/booking-events/internal/infrastructure/kafka"
	"github.com/hotelio/booking-events/internal/infrastructure/metrics"
	postgresinfra "github.com/hotelio/booking-events/internal/infrastructure/postgres"
	redisinfra "github.com/hotelio/booking-events/internal/infrastructure/redis"
	historyuc "github.com/hotelio/booking-events/internal/usecase/history"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// PostgreSQL
	dbPool, err := postgresinfra.NewPool(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB, cfg.PostgresUser, cfg.PostgresPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Redis (duplicate suppression fast path)
	redisClient := redisinfra.NewClient(cfg.RedisAddr, cfg.RedisPassword)

	// Kafka
	kafkaBrokers := []string{cfg.KafkaBrokers}
	if err := kafkainfra.WaitForBroker(kafkaBrokers); err != nil {
		log.Error().Err(err).Msg("Kafka connectivity probe failed")
	}
	if err := kafkainfra.EnsureTopic(kafkaBrokers, cfg.KafkaTopic); err != nil {
		log.Error().Err(err).Str("topic", cfg.KafkaTopic).Msg("Failed to ensure topic")
	}

	group, err := kafkainfra.NewConsumerGroup(kafkaBrokers, cfg.ConsumerGroupID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create consumer group")
	}
	defer group.Close()

	// Wiring
	historyRepo := postgresadp.NewHistoryRepository(dbPool)
	dedup := redisadp.NewDedupStore(redisClient)
	historyService := historyuc.NewService(historyRepo, dedup)
	listener := kafkaadp.NewListener(historyService)

	metrics.Serve(cfg.MetricsPort)

	go func() {
		for err := range group.Errors() {
			log.Error().Err(err).Msg("Consumer group error")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("topic", cfg.KafkaTopic).
		Str("group", cfg.ConsumerGroupID).
		Msg("History service started")

	if err := listener.Run(ctx, group, cfg.KafkaTopic); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Consumer stopped with error")
	}
	log.Info().Msg("Shutting down...")
}
