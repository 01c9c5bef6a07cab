// Package ledger is the insert-only purchase record store: one row per
// (buyer, track, fulfillment attempt), never mutated after creation.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseRecord is the durable record of a delivered entitlement. Artifact
// paths, not signed URLs, are stored; links are re-derivable from the paths at
// any time.
type PurchaseRecord struct {
	ID          uuid.UUID
	BuyerID     string
	TrackID     string
	TrackTitle  string
	Price       float64
	SessionRef  string
	ZipPath     string
	LicensePath string
	PurchasedAt time.Time
	ExpiresAt   time.Time
}
