package events

import "sync"

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(PurchaseFulfilled) error { return nil }

// InMemoryPublisher records events for test assertions.
type InMemoryPublisher struct {
	mu     sync.Mutex
	events []PurchaseFulfilled
}

func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{}
}

func (p *InMemoryPublisher) Publish(event PurchaseFulfilled) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *InMemoryPublisher) Events() []PurchaseFulfilled {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PurchaseFulfilled{}, p.events...)
}
