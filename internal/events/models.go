// Package events publishes purchase lifecycle events for out-of-band
// consumers (receipt email, analytics). Publishing is best-effort: a broker
// outage never fails a fulfillment that already wrote its ledger record.
package events

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseFulfilled is emitted once per written purchase record.
type PurchaseFulfilled struct {
	RecordID    uuid.UUID `json:"record_id"`
	BuyerID     string    `json:"buyer_id"`
	TrackID     string    `json:"track_id"`
	TrackTitle  string    `json:"track_title"`
	Price       float64   `json:"price"`
	SessionRef  string    `json:"session_ref"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// Publisher emits purchase events.
type Publisher interface {
	Publish(event PurchaseFulfilled) error
}
