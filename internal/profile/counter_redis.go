package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisCounter stores purchase counts as redis integers. INCRBY is atomic, so
// two fulfillments for the same buyer finishing at the same instant cannot
// lose an increment.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func counterKey(buyerID string) string {
	return "profile:" + buyerID + ":purchase_count"
}

func (c *RedisCounter) IncrementPurchaseCount(ctx context.Context, buyerID string, delta int64) error {
	if err := c.client.IncrBy(ctx, counterKey(buyerID), delta).Err(); err != nil {
		return fmt.Errorf("increment purchase count for %s: %w", buyerID, err)
	}
	return nil
}

func (c *RedisCounter) PurchaseCount(ctx context.Context, buyerID string) (int64, error) {
	count, err := c.client.Get(ctx, counterKey(buyerID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read purchase count for %s: %w", buyerID, err)
	}
	return count, nil
}
