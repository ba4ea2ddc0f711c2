// Package consumer runs the episode snapshot group consumer. Offsets are
// committed once per poll batch after every record was handled, giving
// at-least-once delivery; the handler is idempotent so redelivery is safe.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// RecordHandler handles one record value. It must only return an error on
// context cancellation; per-record failures are its own responsibility.
type RecordHandler func(ctx context.Context, value []byte) error

// Config holds consumer configuration.
type Config struct {
	Brokers []string
	GroupID string
	Topic   string
}

// Consumer polls the topic and dispatches records to the handler.
type Consumer struct {
	client  *kgo.Client
	handler RecordHandler
	logger  *slog.Logger
}

func New(cfg Config, handler RecordHandler, logger *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
		kgo.FetchMaxWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if !errors.Is(err, context.Canceled) {
				c.logger.Error("kafka fetch error", "topic", topic, "partition", partition, "error", err)
			}
		})

		var handleErr error
		fetches.EachRecord(func(record *kgo.Record) {
			if handleErr != nil {
				return
			}
			handleErr = c.handler(ctx, record.Value)
		})
		if handleErr != nil {
			return handleErr
		}

		if fetches.NumRecords() > 0 {
			if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
				c.logger.Error("failed to commit offsets", "error", err)
			}
		}
	}
}
