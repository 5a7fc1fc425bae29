package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	kafkaadp "github.com/hotelio/booking-events/internal/adapter/kafka"
	postgresadp "github.com/hotelio/booking-events/internal/adapter/postgres"
	"github.com/hotelio/booking-events/internal/adapter/rest"
	"github.com/hotelio/booking-events/internal/config"
	kafkainfra "github.com/hotelio/booking-events/internal/infrastructure/kafka"
	"github.com/hotelio/booking-events/internal/infrastructure/metrics"
	postgresinfra "github.com/hotelio/booking-events/internal/infrastructure/postgres"
	bookinguc "github.com/hotelio/booking-events/internal/usecase/booking"
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

	// Kafka: connectivity probe and topic creation are best effort, bookings
	// must keep working while the broker is down.
	kafkaBrokers := []string{cfg.KafkaBrokers}
	if err := kafkainfra.WaitForBroker(kafkaBrokers); err != nil {
		log.Error().Err(err).Msg("Kafka connectivity probe failed")
	}
	if err := kafkainfra.EnsureTopic(kafkaBrokers, cfg.KafkaTopic); err != nil {
		log.Error().Err(err).Str("topic", cfg.KafkaTopic).Msg("Failed to ensure topic")
	}

	producer, err := kafkainfra.NewProducer(kafkaBrokers)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Kafka producer")
	}
	defer producer.Close()

	// Wiring
	bookingRepo := postgresadp.NewBookingRepository(dbPool)
	publisher := kafkaadp.NewPublisher(producer, cfg.KafkaTopic)
	bookingService := bookinguc.NewService(bookingRepo, publisher)
	handler := rest.NewHandler(bookingService, kafkaBrokers)

	metrics.Serve(cfg.MetricsPort)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler.Routes(),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Int("port", cfg.Port).Msg("Booking service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Shutdown timeout, forcing stop")
	} else {
		log.Info().Msg("Server stopped gracefully")
	}
}
