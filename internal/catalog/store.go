package catalog

import "context"

// Store looks up tracks by id. A missing track returns (nil, nil); errors are
// transport/storage failures only.
type Store interface {
	GetTrack(ctx context.Context, id string) (*Track, error)
}
