package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore mirrors the postgres store's semantics for tests, including
// the (buyer, track, session) idempotency constraint.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*PurchaseRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, record *PurchaseRecord) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.BuyerID == record.BuyerID &&
			existing.TrackID == record.TrackID &&
			existing.SessionRef == record.SessionRef {
			return existing.ID, nil
		}
	}

	stored := *record
	s.records = append(s.records, &stored)
	return stored.ID, nil
}

func (s *InMemoryStore) ListByBuyer(_ context.Context, buyerID string) ([]*PurchaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*PurchaseRecord
	for _, record := range s.records {
		if record.BuyerID == buyerID {
			copied := *record
			result = append(result, &copied)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PurchasedAt.After(result[j].PurchasedAt)
	})
	return result, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*PurchaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.ID == id {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}
