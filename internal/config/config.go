package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config carries everything both services read from the environment.
// Broker coordinates, topic name and group id are injected, never hard-coded.
type Config struct {
	Env string `envconfig:"APP_ENV" default:"development"`

	Port        int `envconfig:"PORT" default:"8080"`
	MetricsPort int `envconfig:"METRICS_PORT" default:"9090"`

	KafkaBrokers    string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic      string `envconfig:"KAFKA_TOPIC" default:"booking-events"`
	ConsumerGroupID string `envconfig:"KAFKA_CONSUMER_GROUP" default:"booking-history-group"`

	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"hotelio"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"hotelio"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"hotelio"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
