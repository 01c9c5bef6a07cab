package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Store is the purchase ledger contract.
//
// Append is insert-only and idempotent on (buyer, track, session): replaying a
// fulfillment after a partial failure re-uses the record written the first
// time instead of duplicating it. ListByBuyer orders newest-first; the sort is
// synthesized in the store since the backing table has no write-time sort
// guarantee.
type Store interface {
	Append(ctx context.Context, record *PurchaseRecord) (uuid.UUID, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*PurchaseRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseRecord, error)
}
