// Package service drives the end-to-end fulfillment flow: verify payment,
// resolve entitlements, build and upload one package per item, record each in
// the ledger, and aggregate the signed download links.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"beatvault/internal/events"
	"beatvault/internal/fulfillment"
	"beatvault/internal/fulfillment/metrics"
	"beatvault/internal/fulfillment/ports"
	"beatvault/internal/ledger"
	"beatvault/pkg/domain"
	dErrors "beatvault/pkg/domain-errors"
	"beatvault/pkg/requestcontext"
)

var tracer trace.Tracer = otel.Tracer("beatvault/fulfillment")

// Service is the fulfillment orchestrator. All collaborators are injected;
// it holds no mutable state of its own, so concurrent requests share nothing
// but the ledger and the profile counter, both of which are additive.
type Service struct {
	gateway ports.PaymentGateway
	catalog ports.Catalog
	packer  ports.Packager
	store   ports.ArtifactStore
	ledger  ports.Ledger
	profile ports.ProfileCounter
	events  ports.EventPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	urlTTL  time.Duration
	now     func() time.Time
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Gateway ports.PaymentGateway
	Catalog ports.Catalog
	Packer  ports.Packager
	Store   ports.ArtifactStore
	Ledger  ports.Ledger
	Profile ports.ProfileCounter
	Events  ports.EventPublisher
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	URLTTL  time.Duration
}

func New(deps Deps) *Service {
	return &Service{
		gateway: deps.Gateway,
		catalog: deps.Catalog,
		packer:  deps.Packer,
		store:   deps.Store,
		ledger:  deps.Ledger,
		profile: deps.Profile,
		events:  deps.Events,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		urlTTL:  deps.URLTTL,
		now:     time.Now,
	}
}

// Fulfill runs the pipeline for one payment session. Items are processed
// sequentially in resolved order; the first failure aborts the request and
// earlier items' artifacts and ledger rows stay in place. The ledger's
// (buyer, track, session) idempotency means a full client retry re-uses those
// rows rather than duplicating them.
func (s *Service) Fulfill(ctx context.Context, buyer domain.BuyerIdentity, sessionRef string) ([]fulfillment.ItemResult, error) {
	ctx, span := tracer.Start(ctx, "fulfillment.Fulfill")
	defer span.End()
	start := s.now()

	log := s.logger.With(
		"request_id", requestcontext.RequestID(ctx),
		"session_ref", sessionRef,
		"buyer_id", buyer.LedgerID,
	)

	confirmation, err := s.verify(ctx, log, buyer, sessionRef)
	if err != nil {
		s.metrics.ObserveFulfillment("failed", 0, s.now().Sub(start))
		return nil, err
	}

	trackIDs, err := fulfillment.ResolveEntitlements(confirmation.Metadata)
	if err != nil {
		log.WarnContext(ctx, "no entitlements in payment metadata", "stage", "resolving")
		s.metrics.ObserveFulfillment("failed", 0, s.now().Sub(start))
		return nil, err
	}
	log.InfoContext(ctx, "entitlements resolved", "stage", "resolving", "track_ids", trackIDs)

	results := make([]fulfillment.ItemResult, 0, len(trackIDs))
	for _, trackID := range trackIDs {
		result, err := s.fulfillItem(ctx, log, buyer, sessionRef, trackID)
		if err != nil {
			log.ErrorContext(ctx, "item fulfillment failed",
				"stage", "building",
				"track_id", trackID,
				"items_completed", len(results),
				"error", err,
			)
			s.metrics.ObserveFulfillment("failed", len(results), s.now().Sub(start))
			return nil, err
		}
		results = append(results, result)
	}

	// Aggregate count is best-effort: the records above are already durable
	// and a counter hiccup must not fail a delivered purchase.
	if err := s.profile.IncrementPurchaseCount(ctx, buyer.LedgerID, int64(len(results))); err != nil {
		log.WarnContext(ctx, "purchase count increment failed", "stage", "aggregating", "error", err)
	}

	log.InfoContext(ctx, "fulfillment complete",
		"stage", "done",
		"items", len(results),
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	s.metrics.ObserveFulfillment("fulfilled", len(results), s.now().Sub(start))
	return results, nil
}

func (s *Service) verify(ctx context.Context, log *slog.Logger, buyer domain.BuyerIdentity, sessionRef string) (*fulfillment.PaymentConfirmation, error) {
	ctx, span := tracer.Start(ctx, "fulfillment.verify")
	defer span.End()

	confirmation, err := s.gateway.Confirm(ctx, sessionRef)
	if err != nil {
		log.ErrorContext(ctx, "payment confirmation failed", "stage", "verifying", "error", err)
		return nil, err
	}
	if !confirmation.Paid() {
		log.WarnContext(ctx, "payment session not paid", "stage", "verifying", "status", confirmation.Status)
		return nil, dErrors.New(dErrors.CodeNotPaid, "payment session is not paid")
	}
	// A confirmation carrying someone else's email means the session ref was
	// guessed or replayed across accounts.
	if !confirmation.EmailMatches(buyer.Email) {
		log.WarnContext(ctx, "confirmation email does not match session", "stage", "verifying")
		return nil, dErrors.New(dErrors.CodeIdentityMismatch, "payment confirmation belongs to a different buyer")
	}
	log.InfoContext(ctx, "payment verified", "stage", "verifying")
	return confirmation, nil
}

func (s *Service) fulfillItem(ctx context.Context, log *slog.Logger, buyer domain.BuyerIdentity, sessionRef, trackID string) (fulfillment.ItemResult, error) {
	ctx, span := tracer.Start(ctx, "fulfillment.item")
	defer span.End()
	var zero fulfillment.ItemResult

	track, err := s.catalog.GetTrack(ctx, trackID)
	if err != nil {
		return zero, dErrors.Wrap(dErrors.CodeInternal, "look up track "+trackID, err)
	}
	if track == nil {
		return zero, dErrors.New(dErrors.CodeAssetMissing,
			fmt.Sprintf("track %s has no catalog asset", trackID)).WithMeta("track_id", trackID)
	}

	purchasedAt := s.now()

	licensePDF, err := s.packer.GenerateLicense(track.Title, buyer.DisplayName, buyer.Email, purchasedAt)
	if err != nil {
		return zero, err
	}
	archive, err := s.packer.BuildArchive(ctx, track.AudioURL, track.Title, licensePDF)
	if err != nil {
		return zero, err
	}

	// Path layout is a durable contract: purchases/<storageAuthId>/<epochMs>_<trackId>.
	base := fmt.Sprintf("purchases/%s/%d_%s", buyer.StorageAuthID, purchasedAt.UnixMilli(), track.ID)
	zipPath := base + ".zip"
	licensePath := base + "_rights.pdf"

	if err := s.store.Upload(ctx, zipPath, archive, "application/zip"); err != nil {
		return zero, err
	}
	if err := s.store.Upload(ctx, licensePath, licensePDF, "application/pdf"); err != nil {
		return zero, err
	}

	downloadURL, expiresAt, err := s.store.SignURL(zipPath, s.urlTTL)
	if err != nil {
		return zero, err
	}
	licenseURL, _, err := s.store.SignURL(licensePath, s.urlTTL)
	if err != nil {
		return zero, err
	}
	s.metrics.SignedURLMints.Add(2)

	record := &ledger.PurchaseRecord{
		ID:          uuid.New(),
		BuyerID:     buyer.LedgerID,
		TrackID:     track.ID,
		TrackTitle:  track.Title,
		Price:       track.Price,
		SessionRef:  sessionRef,
		ZipPath:     zipPath,
		LicensePath: licensePath,
		PurchasedAt: purchasedAt,
		ExpiresAt:   expiresAt,
	}
	recordID, err := s.ledger.Append(ctx, record)
	if err != nil {
		return zero, dErrors.Wrap(dErrors.CodeLedgerWrite, "append purchase record for "+trackID, err)
	}

	if err := s.events.Publish(events.PurchaseFulfilled{
		RecordID:    recordID,
		BuyerID:     buyer.LedgerID,
		TrackID:     track.ID,
		TrackTitle:  track.Title,
		Price:       track.Price,
		SessionRef:  sessionRef,
		PurchasedAt: purchasedAt,
	}); err != nil {
		log.WarnContext(ctx, "purchase event publish failed", "track_id", track.ID, "error", err)
	}

	log.InfoContext(ctx, "item fulfilled",
		"stage", "persisting",
		"track_id", track.ID,
		"record_id", recordID,
		"zip_path", zipPath,
	)

	return fulfillment.ItemResult{
		RecordID:    recordID,
		TrackID:     track.ID,
		TrackTitle:  track.Title,
		Price:       track.Price,
		DownloadURL: downloadURL,
		LicenseURL:  licenseURL,
		ExpiresAt:   expiresAt,
	}, nil
}

// RefreshLinks re-mints signed URLs for an existing purchase record. It never
// rebuilds or re-uploads the archive; the stored paths are the source of
// truth and links are derivable from them at any time.
func (s *Service) RefreshLinks(ctx context.Context, buyer domain.BuyerIdentity, recordID uuid.UUID) (*fulfillment.ItemResult, error) {
	record, err := s.ledger.FindByID(ctx, recordID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "find purchase record", err)
	}
	if record == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "purchase record not found")
	}
	if record.BuyerID != buyer.LedgerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "purchase record belongs to a different buyer")
	}

	downloadURL, expiresAt, err := s.store.SignURL(record.ZipPath, s.urlTTL)
	if err != nil {
		return nil, err
	}
	licenseURL, _, err := s.store.SignURL(record.LicensePath, s.urlTTL)
	if err != nil {
		return nil, err
	}
	s.metrics.SignedURLMints.Add(2)

	s.logger.InfoContext(ctx, "download links refreshed",
		"request_id", requestcontext.RequestID(ctx),
		"buyer_id", buyer.LedgerID,
		"record_id", recordID,
	)

	return &fulfillment.ItemResult{
		RecordID:    record.ID,
		TrackID:     record.TrackID,
		TrackTitle:  record.TrackTitle,
		Price:       record.Price,
		DownloadURL: downloadURL,
		LicenseURL:  licenseURL,
		ExpiresAt:   expiresAt,
	}, nil
}

// ListPurchases returns the buyer's ledger records, newest-first.
func (s *Service) ListPurchases(ctx context.Context, buyer domain.BuyerIdentity) ([]*ledger.PurchaseRecord, error) {
	records, err := s.ledger.ListByBuyer(ctx, buyer.LedgerID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list purchases", err)
	}
	return records, nil
}
