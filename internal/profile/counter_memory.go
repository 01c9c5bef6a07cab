package profile

import (
	"context"
	"sync"
)

// InMemoryCounter backs tests without redis.
type InMemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewInMemoryCounter() *InMemoryCounter {
	return &InMemoryCounter{counts: make(map[string]int64)}
}

func (c *InMemoryCounter) IncrementPurchaseCount(_ context.Context, buyerID string, delta int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[buyerID] += delta
	return nil
}

func (c *InMemoryCounter) PurchaseCount(_ context.Context, buyerID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[buyerID], nil
}
