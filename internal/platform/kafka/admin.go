// Package kafka holds the broker administration client used for topic setup
// and health checks.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Admin manages topics and answers broker health checks.
type Admin struct {
	client *kgo.Client
	admin  *kadm.Client
	logger *slog.Logger
}

func NewAdmin(brokers []string, logger *slog.Logger) (*Admin, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("create kafka admin: %w", err)
	}
	return &Admin{client: client, admin: kadm.NewClient(client), logger: logger}, nil
}

// EnsureTopics creates the given topics when missing. Existing topics are left
// untouched.
func (a *Admin) EnsureTopics(ctx context.Context, partitions int32, topics ...string) error {
	existing, err := a.admin.ListTopics(ctx, topics...)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	var missing []string
	for _, topic := range topics {
		if detail, ok := existing[topic]; !ok || detail.Err != nil {
			missing = append(missing, topic)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	responses, err := a.admin.CreateTopics(ctx, partitions, 1, nil, missing...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, response := range responses.Sorted() {
		if response.Err != nil {
			return fmt.Errorf("create topic %s: %w", response.Topic, response.Err)
		}
		a.logger.Info("created kafka topic", "topic", response.Topic)
	}
	return nil
}

// Healthy reports whether the brokers answer a ping.
func (a *Admin) Healthy(ctx context.Context) bool {
	return a.client.Ping(ctx) == nil
}

// Close shuts the underlying client down.
func (a *Admin) Close() {
	a.client.Close()
}
