// Package profile maintains the buyer's aggregate purchase counter. The
// counter is additive only; fulfillment increments it by the number of items
// delivered in a request.
package profile

import "context"

// Counter increments and reads a buyer's lifetime purchase count.
type Counter interface {
	IncrementPurchaseCount(ctx context.Context, buyerID string, delta int64) error
	PurchaseCount(ctx context.Context, buyerID string) (int64, error)
}
