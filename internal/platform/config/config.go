// Package config builds the application configuration from environment
// variables so main stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the service needs at startup.
type Config struct {
	Environment string
	OpsAddr     string

	DatabaseURL string
	RedisURL    string

	KafkaBrokers       string
	KafkaGroupID       string
	SnapshotTopic      string
	CaseEventTopic     string
	VarselTopic        string
	VarselExpiredTopic string

	PdfGenURL      string
	DokarkivURL    string
	ClientTimeout  time.Duration
	WorkerInterval time.Duration

	SvarfristMinDays int
	SvarfristMaxDays int
	LegacyCutoff     time.Time
	InactivityDays   int
}

// FromEnv builds a Config from environment variables, with development
// defaults for everything but the database URL.
func FromEnv() Config {
	return Config{
		Environment: envOr("ENVIRONMENT", "development"),
		OpsAddr:     envOr("OPS_ADDR", ":8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		KafkaBrokers:       envOr("KAFKA_BROKERS", "localhost:9092"),
		KafkaGroupID:       envOr("KAFKA_GROUP_ID", "aktivitetskrav"),
		SnapshotTopic:      envOr("KAFKA_SNAPSHOT_TOPIC", "oppfolgingstilfelle-person"),
		CaseEventTopic:     envOr("KAFKA_CASE_EVENT_TOPIC", "aktivitetskrav-vurdering"),
		VarselTopic:        envOr("KAFKA_VARSEL_TOPIC", "aktivitetskrav-varsel"),
		VarselExpiredTopic: envOr("KAFKA_VARSEL_EXPIRED_TOPIC", "aktivitetskrav-varsel-expired"),

		PdfGenURL:      envOr("PDFGEN_URL", "http://localhost:8081"),
		DokarkivURL:    envOr("DOKARKIV_URL", "http://localhost:8082"),
		ClientTimeout:  envDuration("CLIENT_TIMEOUT", 10*time.Second),
		WorkerInterval: envDuration("WORKER_INTERVAL", time.Minute),

		SvarfristMinDays: envInt("SVARFRIST_MIN_DAYS", 14),
		SvarfristMaxDays: envInt("SVARFRIST_MAX_DAYS", 60),
		LegacyCutoff:     envDate("LEGACY_CUTOFF", time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC)),
		InactivityDays:   envInt("INACTIVITY_DAYS", 30),
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDate(key string, fallback time.Time) time.Time {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.Parse("2006-01-02", value); err == nil {
			return parsed
		}
	}
	return fallback
}
