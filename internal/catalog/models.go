// Package catalog is the read-only asset source. Track rows are created and
// mutated by the admin flow elsewhere; fulfillment only looks them up.
package catalog

// Track is the canonical catalog view of a purchasable beat.
type Track struct {
	ID       string
	Title    string
	Price    float64
	AudioURL string
}
