package fulfillment

import (
	"encoding/json"
	"strings"

	dErrors "beatvault/pkg/domain-errors"
	pstrings "beatvault/pkg/platform/strings"
)

// Payment metadata fields carrying the purchased track ids. Checkout writes
// trackIds (JSON array) for cart purchases and trackId for single buys; old
// sessions may carry only the scalar.
const (
	MetadataTrackID  = "trackId"
	MetadataTrackIDs = "trackIds"
)

// ResolveEntitlements expands payment metadata into the ordered, deduplicated
// list of purchased track ids.
//
// The JSON-array field wins when it parses and is non-empty after dropping
// blank entries; otherwise the scalar field is used. Order is the array's
// order with first occurrence kept on duplicates.
func ResolveEntitlements(metadata map[string]string) ([]string, error) {
	if raw := metadata[MetadataTrackIDs]; raw != "" {
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err == nil {
			if ids = pstrings.DedupeAndTrim(ids); len(ids) > 0 {
				return ids, nil
			}
		}
	}

	if id := strings.TrimSpace(metadata[MetadataTrackID]); id != "" {
		return []string{id}, nil
	}

	return nil, dErrors.New(dErrors.CodeNoEntitlements, "payment metadata names no purchased tracks")
}
