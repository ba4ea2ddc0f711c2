package reconcile

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper short-circuits snapshots already processed. Best effort: a cache
// outage degrades to full processing, never to data loss. Checking and marking
// are separate so a failed reconciliation is never recorded as done; the
// redelivery stays the retry path.
type Deduper interface {
	// Seen reports whether the reference was already reconciled.
	Seen(ctx context.Context, reference string) (bool, error)
	// MarkProcessed records the reference after a successful reconciliation.
	MarkProcessed(ctx context.Context, reference string) error
}

// RedisDeduper tracks processed snapshot references in redis with a TTL, so the
// set stays bounded while covering the realistic redelivery window.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) Seen(ctx context.Context, reference string) (bool, error) {
	n, err := d.client.Exists(ctx, snapshotKey(reference)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDeduper) MarkProcessed(ctx context.Context, reference string) error {
	return d.client.Set(ctx, snapshotKey(reference), "1", d.ttl).Err()
}

func snapshotKey(reference string) string {
	return "aktivitetskrav:snapshot:" + reference
}
