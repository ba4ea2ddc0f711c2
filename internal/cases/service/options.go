package service

import (
	"log/slog"
	"time"

	casemetrics "aktivitetskrav/internal/cases/metrics"
)

// Config holds the tunable business parameters of the case service.
type Config struct {
	// SvarfristMinDays/SvarfristMaxDays bound the statutory reply window on a
	// forewarning, counted from the issue date.
	SvarfristMinDays int
	SvarfristMaxDays int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SvarfristMinDays: 14,
		SvarfristMaxDays: 60,
	}
}

// Option configures the service.
type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *casemetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithClock pins the service's notion of now. Used by tests.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		s.now = clock
	}
}

var defaultClock Clock = time.Now
