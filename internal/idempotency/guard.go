package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrDuplicateRequest = errors.New("duplicate request")

const keyTTL = 24 * time.Hour

// Store is the subset of redis commands the guard issues. *redis.Client
// satisfies it.
type Store interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Guard deduplicates checkout attempts keyed on the client-supplied
// Idempotency-Key header. A nil Guard (no redis configured) allows
// everything.
type Guard struct {
	client Store
}

func New(client Store) *Guard {
	return &Guard{client: client}
}

func (g *Guard) Check(ctx context.Context, userID uint, key string) error {
	if g == nil || g.client == nil || key == "" {
		return nil
	}

	ok, err := g.client.SetNX(ctx, guardKey(userID, key), 1, keyTTL).Result()
	if err != nil {
		return fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return ErrDuplicateRequest
	}
	return nil
}

// Release frees a key claimed by Check. Called when the guarded operation
// fails, so a corrected retry with the same key is not rejected for the
// remainder of the TTL.
func (g *Guard) Release(ctx context.Context, userID uint, key string) {
	if g == nil || g.client == nil || key == "" {
		return
	}
	g.client.Del(ctx, guardKey(userID, key))
}

func guardKey(userID uint, key string) string {
	return fmt.Sprintf("idempotency:order:%d:%s", userID, key)
}
