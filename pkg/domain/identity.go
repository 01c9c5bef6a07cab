// Package domain holds small shared identity types so transport, services and
// context plumbing agree on one definition without import cycles.
package domain

// BuyerIdentity is the authenticated buyer as supplied by the session layer.
//
// LedgerID keys purchase records; StorageAuthID keys blob-storage paths and
// access rules. The two differ because storage ACLs are evaluated against the
// storage provider's auth identity, not against our ledger's buyer id.
type BuyerIdentity struct {
	LedgerID      string
	StorageAuthID string
	DisplayName   string
	Email         string
}

// IsZero reports whether no authenticated buyer is present.
func (b BuyerIdentity) IsZero() bool {
	return b.LedgerID == "" && b.StorageAuthID == ""
}
