package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName     string
	AppEnv          string
	AppPort         string
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	AMQPURL         string
	OutboxInterval  time.Duration
	OutboxBatchSize int
}

const (
	defaultOutboxInterval  = 10 * time.Second
	defaultOutboxBatchSize = 100
)

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName:     os.Getenv("SERVICE_NAME"),
		AppEnv:          os.Getenv("APP_ENV"),
		AppPort:         stringEnv("APP_PORT", "8080"),
		DBHost:          os.Getenv("DB_HOST"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          os.Getenv("DB_NAME"),
		DBPort:          os.Getenv("DB_PORT"),
		AMQPURL:         os.Getenv("AMQP_URL"),
		OutboxInterval:  durationEnv("OUTBOX_INTERVAL", defaultOutboxInterval),
		OutboxBatchSize: intEnv("OUTBOX_BATCH_SIZE", defaultOutboxBatchSize),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func stringEnv(key, fallback string) string {
	if raw := os.Getenv(key); raw != "" {
		return raw
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("invalid duration in %s: %v", key, err)
	}

	return d
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("invalid integer in %s: %v", key, err)
	}

	return n
}
