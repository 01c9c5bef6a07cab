// Package handler is the thin HTTP layer over the fulfillment service. It
// decodes requests, enforces the authenticated buyer, and shapes responses;
// business logic stays in the service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"beatvault/internal/fulfillment"
	"beatvault/internal/ledger"
	"beatvault/pkg/domain"
	dErrors "beatvault/pkg/domain-errors"
	"beatvault/pkg/platform/httputil"
	"beatvault/pkg/requestcontext"
)

// Service is the fulfillment surface the handler needs.
type Service interface {
	Fulfill(ctx context.Context, buyer domain.BuyerIdentity, sessionRef string) ([]fulfillment.ItemResult, error)
	RefreshLinks(ctx context.Context, buyer domain.BuyerIdentity, recordID uuid.UUID) (*fulfillment.ItemResult, error)
	ListPurchases(ctx context.Context, buyer domain.BuyerIdentity) ([]*ledger.PurchaseRecord, error)
}

// Handler wires fulfillment endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts fulfillment endpoints on the router. All routes require an
// authenticated buyer (enforced by middleware upstream).
func (h *Handler) Register(r chi.Router) {
	r.Post("/fulfillment/verify", h.HandleVerify)
	r.Get("/purchases", h.HandleListPurchases)
	r.Post("/purchases/{id}/links", h.HandleRefreshLinks)
}

type verifyRequest struct {
	SessionRef string `json:"sessionRef"`
}

// HandleVerify handles POST /fulfillment/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	buyer := requestcontext.Buyer(ctx)
	if buyer.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[verifyRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.SessionRef == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "sessionRef is required"))
		return
	}

	// Detach from the client connection: a disconnect must not abort
	// in-flight uploads or ledger writes mid-pipeline.
	results, err := h.service.Fulfill(context.WithoutCancel(ctx), buyer, req.SessionRef)
	if err != nil {
		h.logger.ErrorContext(ctx, "fulfillment failed",
			"request_id", requestID,
			"buyer_id", buyer.LedgerID,
			"session_ref", req.SessionRef,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "fulfillment verified",
		"request_id", requestID,
		"buyer_id", buyer.LedgerID,
		"session_ref", req.SessionRef,
		"items", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, fulfillmentPayload(results))
}

// HandleListPurchases handles GET /purchases.
func (h *Handler) HandleListPurchases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buyer := requestcontext.Buyer(ctx)
	if buyer.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	records, err := h.service.ListPurchases(ctx, buyer)
	if err != nil {
		h.logger.ErrorContext(ctx, "purchase listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"buyer_id", buyer.LedgerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, purchaseListPayload(records))
}

// HandleRefreshLinks handles POST /purchases/{id}/links.
func (h *Handler) HandleRefreshLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buyer := requestcontext.Buyer(ctx)
	if buyer.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	recordID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid purchase id"))
		return
	}

	result, err := h.service.RefreshLinks(ctx, buyer, recordID)
	if err != nil {
		h.logger.WarnContext(ctx, "link refresh failed",
			"request_id", requestcontext.RequestID(ctx),
			"buyer_id", buyer.LedgerID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, linksPayload(result))
}
