package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 30 * time.Second

// CompletionDedup provides idempotency checks for lesson-completion events
// backed by Redis.
// Key format: completion:<cartorio>:<user>:<lesson>:<completed>
type CompletionDedup struct {
	client *redis.Client
}

// NewCompletionDedup creates a CompletionDedup wrapping the given Redis client.
func NewCompletionDedup(client *redis.Client) *CompletionDedup {
	return &CompletionDedup{client: client}
}

// IsDuplicate reports whether this exact toggle was already processed within
// the dedup window.
func (d *CompletionDedup) IsDuplicate(ctx context.Context, cartorioID, userID, lessonID string, completed bool) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(cartorioID, userID, lessonID, completed)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this toggle has been processed (expires after dedupTTL).
func (d *CompletionDedup) Mark(ctx context.Context, cartorioID, userID, lessonID string, completed bool) error {
	return d.client.Set(ctx, d.key(cartorioID, userID, lessonID, completed), "1", dedupTTL).Err()
}

func (d *CompletionDedup) key(cartorioID, userID, lessonID string, completed bool) string {
	return fmt.Sprintf("completion:%s:%s:%s:%t", cartorioID, userID, lessonID, completed)
}
