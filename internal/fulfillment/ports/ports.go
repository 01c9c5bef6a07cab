// Package ports declares the orchestrator's view of its collaborators. Each
// interface is the minimal surface the pipeline touches, so tests can swap
// doubles per concern.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"beatvault/internal/catalog"
	"beatvault/internal/events"
	"beatvault/internal/fulfillment"
	"beatvault/internal/ledger"
)

// PaymentGateway confirms checkout sessions.
type PaymentGateway interface {
	Confirm(ctx context.Context, sessionRef string) (*fulfillment.PaymentConfirmation, error)
}

// Catalog is the read-only asset source. Missing tracks return (nil, nil).
type Catalog interface {
	GetTrack(ctx context.Context, id string) (*catalog.Track, error)
}

// Packager produces the per-item license document and download archive.
type Packager interface {
	GenerateLicense(trackTitle, buyerName, buyerEmail string, purchasedAt time.Time) ([]byte, error)
	BuildArchive(ctx context.Context, audioBlobRef, trackTitle string, licensePDF []byte) ([]byte, error)
}

// ArtifactStore uploads artifacts and mints signed read URLs on demand.
type ArtifactStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	SignURL(path string, ttl time.Duration) (url string, expiresAt time.Time, err error)
}

// Ledger is the purchase record store.
type Ledger interface {
	Append(ctx context.Context, record *ledger.PurchaseRecord) (uuid.UUID, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*ledger.PurchaseRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*ledger.PurchaseRecord, error)
}

// ProfileCounter tracks the buyer's aggregate purchase count.
type ProfileCounter interface {
	IncrementPurchaseCount(ctx context.Context, buyerID string, delta int64) error
}

// EventPublisher emits purchase events; failures must not fail fulfillment.
type EventPublisher interface {
	Publish(event events.PurchaseFulfilled) error
}
