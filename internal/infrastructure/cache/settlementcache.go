package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const settledKeyPrefix = "payment:settled:"

// SettlementCache remembers settled (order, txn) tuples in Redis so replayed
// gateway notifications are answered without a database write attempt. Every
// entry carries an explicit TTL; the database stays the source of truth.
type SettlementCache struct {
	client *redis.Client
}

func NewSettlementCache(client *redis.Client) *SettlementCache {
	return &SettlementCache{client: client}
}

func settledKey(orderNo, gatewayTxnRef string) string {
	return fmt.Sprintf("%s%s:%s", settledKeyPrefix, orderNo, gatewayTxnRef)
}

func (c *SettlementCache) IsSettled(ctx context.Context, orderNo, gatewayTxnRef string) (bool, error) {
	err := c.client.Get(ctx, settledKey(orderNo, gatewayTxnRef)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check settlement cache: %w", err)
	}
	return true, nil
}

func (c *SettlementCache) MarkSettled(ctx context.Context, orderNo, gatewayTxnRef string, ttl time.Duration) error {
	if err := c.client.Set(ctx, settledKey(orderNo, gatewayTxnRef), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark settlement in cache: %w", err)
	}
	return nil
}
