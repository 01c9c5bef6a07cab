// Package fulfillment holds the domain model of the purchase verification and
// digital delivery pipeline.
package fulfillment

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StatusPaid is the only payment status that may proceed to delivery.
const StatusPaid = "paid"

// PaymentConfirmation is the gateway's view of a checkout session. Read-only
// input to the pipeline.
type PaymentConfirmation struct {
	Status     string            `json:"status"`
	BuyerEmail string            `json:"buyerEmail,omitempty"`
	Metadata   map[string]string `json:"metadata"`
}

// Paid reports whether the session settled.
func (c *PaymentConfirmation) Paid() bool {
	return c.Status == StatusPaid
}

// EmailMatches reports whether the confirmation's buyer email is compatible
// with the requesting session's email. An absent confirmation email matches
// anything; a present one must match case-insensitively. This guards against
// replaying another account's session reference.
func (c *PaymentConfirmation) EmailMatches(sessionEmail string) bool {
	if c.BuyerEmail == "" {
		return true
	}
	return strings.EqualFold(c.BuyerEmail, sessionEmail)
}

// ItemResult is the per-item outcome of a successful fulfillment. The list of
// these is the orchestrator's whole answer; flat-vs-items response shaping
// happens only at the transport boundary.
type ItemResult struct {
	RecordID    uuid.UUID
	TrackID     string
	TrackTitle  string
	Price       float64
	DownloadURL string
	LicenseURL  string
	ExpiresAt   time.Time
}
