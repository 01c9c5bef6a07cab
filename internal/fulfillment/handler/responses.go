package handler

import (
	"time"

	"beatvault/internal/fulfillment"
	"beatvault/internal/ledger"
)

// itemPayload is one fulfilled entitlement in a response.
type itemPayload struct {
	TrackID     string  `json:"trackId"`
	TrackTitle  string  `json:"trackTitle"`
	Price       float64 `json:"price"`
	DownloadURL string  `json:"downloadUrl"`
	PDFURL      string  `json:"pdfUrl"`
	ExpiresAt   string  `json:"expiresAt"`
}

// verifyResponse keeps the legacy flat fields for single-item carts alongside
// the items array; multi-item carts carry items only.
type verifyResponse struct {
	DownloadURL       string        `json:"downloadUrl,omitempty"`
	PDFURL            string        `json:"pdfUrl,omitempty"`
	ExpiresAt         string        `json:"expiresAt,omitempty"`
	TrackID           string        `json:"trackId,omitempty"`
	TrackTitle        string        `json:"trackTitle,omitempty"`
	PurchasedTrackIDs []string      `json:"purchasedTrackIds"`
	Items             []itemPayload `json:"items"`
}

func toItemPayload(item fulfillment.ItemResult) itemPayload {
	return itemPayload{
		TrackID:     item.TrackID,
		TrackTitle:  item.TrackTitle,
		Price:       item.Price,
		DownloadURL: item.DownloadURL,
		PDFURL:      item.LicenseURL,
		ExpiresAt:   item.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func fulfillmentPayload(results []fulfillment.ItemResult) verifyResponse {
	resp := verifyResponse{
		PurchasedTrackIDs: make([]string, 0, len(results)),
		Items:             make([]itemPayload, 0, len(results)),
	}
	for _, item := range results {
		resp.PurchasedTrackIDs = append(resp.PurchasedTrackIDs, item.TrackID)
		resp.Items = append(resp.Items, toItemPayload(item))
	}
	if len(results) == 1 {
		only := resp.Items[0]
		resp.DownloadURL = only.DownloadURL
		resp.PDFURL = only.PDFURL
		resp.ExpiresAt = only.ExpiresAt
		resp.TrackID = only.TrackID
		resp.TrackTitle = only.TrackTitle
	}
	return resp
}

type linksResponse struct {
	RecordID    string `json:"recordId"`
	TrackID     string `json:"trackId"`
	DownloadURL string `json:"downloadUrl"`
	PDFURL      string `json:"pdfUrl"`
	ExpiresAt   string `json:"expiresAt"`
}

func linksPayload(item *fulfillment.ItemResult) linksResponse {
	return linksResponse{
		RecordID:    item.RecordID.String(),
		TrackID:     item.TrackID,
		DownloadURL: item.DownloadURL,
		PDFURL:      item.LicenseURL,
		ExpiresAt:   item.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

type purchasePayload struct {
	ID          string  `json:"id"`
	TrackID     string  `json:"trackId"`
	TrackTitle  string  `json:"trackTitle"`
	Price       float64 `json:"price"`
	PurchasedAt string  `json:"purchasedAt"`
	ExpiresAt   string  `json:"expiresAt"`
}

type purchaseListResponse struct {
	Purchases []purchasePayload `json:"purchases"`
}

func purchaseListPayload(records []*ledger.PurchaseRecord) purchaseListResponse {
	resp := purchaseListResponse{Purchases: make([]purchasePayload, 0, len(records))}
	for _, rec := range records {
		resp.Purchases = append(resp.Purchases, purchasePayload{
			ID:          rec.ID.String(),
			TrackID:     rec.TrackID,
			TrackTitle:  rec.TrackTitle,
			Price:       rec.Price,
			PurchasedAt: rec.PurchasedAt.UTC().Format(time.RFC3339),
			ExpiresAt:   rec.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
	return resp
}
