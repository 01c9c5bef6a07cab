package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"beatvault/internal/catalog"
	"beatvault/internal/events"
	"beatvault/internal/fulfillment"
	"beatvault/internal/fulfillment/metrics"
	"beatvault/internal/ledger"
	"beatvault/internal/packaging"
	"beatvault/internal/profile"
	"beatvault/internal/storagegw"
	"beatvault/mocks"
	"beatvault/pkg/domain"
	dErrors "beatvault/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite

	ctrl      *gomock.Controller
	gateway   *mocks.MockPaymentGateway
	catalog   *catalog.InMemoryStore
	ledger    *ledger.InMemoryStore
	profile   *profile.InMemoryCounter
	artifacts *storagegw.InMemoryStore
	events    *events.InMemoryPublisher
	audioSrv  *httptest.Server

	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupSuite() {
	s.audioSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("audio-bytes-for-" + r.URL.Path))
	}))
}

func (s *ServiceSuite) TearDownSuite() {
	s.audioSrv.Close()
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gateway = mocks.NewMockPaymentGateway(s.ctrl)
	s.catalog = catalog.NewInMemoryStore(
		catalog.Track{ID: "t1", Title: "Midnight Drive", Price: 9.99, AudioURL: s.audioSrv.URL + "/t1.mp3"},
		catalog.Track{ID: "t2", Title: "Sunrise (Remix)", Price: 14.99, AudioURL: s.audioSrv.URL + "/t2.wav"},
	)
	s.ledger = ledger.NewInMemoryStore()
	s.profile = profile.NewInMemoryCounter()
	s.artifacts = storagegw.NewInMemoryStore()
	s.events = events.NewInMemoryPublisher()

	s.service = New(Deps{
		Gateway: s.gateway,
		Catalog: s.catalog,
		Packer:  packaging.New(s.audioSrv.Client(), "support@beatvault.example.com"),
		Store:   s.artifacts,
		Ledger:  s.ledger,
		Profile: s.profile,
		Events:  s.events,
		Metrics: metrics.New(prometheus.NewRegistry()),
		Logger:  slog.New(slog.DiscardHandler),
		URLTTL:  7 * 24 * time.Hour,
	})
}

func buyer() domain.BuyerIdentity {
	return domain.BuyerIdentity{
		LedgerID:      "buyer-1",
		StorageAuthID: "storage-uid-1",
		DisplayName:   "Ada B",
		Email:         "a@x.com",
	}
}

func paidConfirmation(metadata map[string]string) *fulfillment.PaymentConfirmation {
	return &fulfillment.PaymentConfirmation{
		Status:     fulfillment.StatusPaid,
		BuyerEmail: "a@x.com",
		Metadata:   metadata,
	}
}

func (s *ServiceSuite) TestNotPaidWritesNothing() {
	ctx := context.Background()
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-1").Return(&fulfillment.PaymentConfirmation{
		Status:   "open",
		Metadata: map[string]string{fulfillment.MetadataTrackID: "t1"},
	}, nil)

	_, err := s.service.Fulfill(ctx, buyer(), "sess-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotPaid))

	records, err := s.ledger.ListByBuyer(ctx, "buyer-1")
	s.Require().NoError(err)
	s.Empty(records)

	count, err := s.profile.PurchaseCount(ctx, "buyer-1")
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *ServiceSuite) TestIdentityMismatchRejected() {
	ctx := context.Background()
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-1").Return(&fulfillment.PaymentConfirmation{
		Status:     fulfillment.StatusPaid,
		BuyerEmail: "someone-else@x.com",
		Metadata:   map[string]string{fulfillment.MetadataTrackID: "t1"},
	}, nil)

	_, err := s.service.Fulfill(ctx, buyer(), "sess-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeIdentityMismatch))

	records, _ := s.ledger.ListByBuyer(ctx, "buyer-1")
	s.Empty(records)
}

func (s *ServiceSuite) TestEmailMatchIsCaseInsensitive() {
	ctx := context.Background()
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-1").Return(&fulfillment.PaymentConfirmation{
		Status:     fulfillment.StatusPaid,
		BuyerEmail: "A@X.com",
		Metadata:   map[string]string{fulfillment.MetadataTrackID: "t1"},
	}, nil)

	results, err := s.service.Fulfill(ctx, buyer(), "sess-1")
	s.Require().NoError(err)
	s.Len(results, 1)
}

func (s *ServiceSuite) TestSingleItemHappyPath() {
	ctx := context.Background()
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-1").
		Return(paidConfirmation(map[string]string{fulfillment.MetadataTrackID: "t1"}), nil)

	results, err := s.service.Fulfill(ctx, buyer(), "sess-1")
	s.Require().NoError(err)
	s.Require().Len(results, 1)

	item := results[0]
	s.Equal("t1", item.TrackID)
	s.Equal("Midnight Drive", item.TrackTitle)
	s.Equal(9.99, item.Price)
	s.NotEmpty(item.DownloadURL)
	s.NotEmpty(item.LicenseURL)
	s.False(item.ExpiresAt.IsZero())

	records, err := s.ledger.ListByBuyer(ctx, "buyer-1")
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	record := records[0]
	s.Equal("sess-1", record.SessionRef)
	s.True(strings.HasPrefix(record.ZipPath, "purchases/storage-uid-1/"), record.ZipPath)
	s.True(strings.HasSuffix(record.ZipPath, "_t1.zip"), record.ZipPath)
	s.True(strings.HasSuffix(record.LicensePath, "_t1_rights.pdf"), record.LicensePath)

	// Both artifacts were uploaded under the record's paths.
	s.NotEmpty(s.artifacts.Object(record.ZipPath))
	s.NotEmpty(s.artifacts.Object(record.LicensePath))
	s.Equal("application/zip", s.artifacts.ContentType(record.ZipPath))
	s.Equal("application/pdf", s.artifacts.ContentType(record.LicensePath))

	count, err := s.profile.PurchaseCount(ctx, "buyer-1")
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	published := s.events.Events()
	s.Require().Len(published, 1)
	s.Equal("t1", published[0].TrackID)
	s.Equal(record.ID, published[0].RecordID)
}

func (s *ServiceSuite) TestCartProcessedInResolvedOrder() {
	ctx := context.Background()
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-2").
		Return(paidConfirmation(map[string]string{
			fulfillment.MetadataTrackIDs: `["t2","t1","t2"]`,
			fulfillment.MetadataTrackID:  "ignored",
		}), nil)

	results, err := s.service.Fulfill(ctx, buyer(), "sess-2")
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal("t2", results[0].TrackID)
	s.Equal("t1", results[1].TrackID)

	records, err := s.ledger.ListByBuyer(ctx, "buyer-1")
	s.Require().NoError(err)
	s.Len(records, 2)

	count, err := s.profile.PurchaseCount(ctx, "buyer-1")
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *ServiceSuite) TestAssetMissingAbortsButKeepsPriorItems() {
	ctx := context.Background()
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-3").
		Return(paidConfirmation(map[string]string{fulfillment.MetadataTrackIDs: `["t1","t404"]`}), nil)

	_, err := s.service.Fulfill(ctx, buyer(), "sess-3")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAssetMissing))
	s.Equal("t404", dErrors.Meta(err, "track_id"))

	// Prior side effects are kept, not rolled back: t1's record and
	// artifacts survive the abort.
	records, listErr := s.ledger.ListByBuyer(ctx, "buyer-1")
	s.Require().NoError(listErr)
	s.Require().Len(records, 1)
	s.Equal("t1", records[0].TrackID)
	s.NotEmpty(s.artifacts.Object(records[0].ZipPath))

	// The aggregate counter is only bumped on full success.
	count, countErr := s.profile.PurchaseCount(ctx, "buyer-1")
	s.Require().NoError(countErr)
	s.Zero(count)
}

func (s *ServiceSuite) TestEmptyEntitlements() {
	ctx := context.Background()
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-4").
		Return(paidConfirmation(map[string]string{fulfillment.MetadataTrackIDs: `[]`}), nil)

	_, err := s.service.Fulfill(ctx, buyer(), "sess-4")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNoEntitlements))
}

func (s *ServiceSuite) TestUploadFailureAborts() {
	ctx := context.Background()
	s.artifacts.FailUploads = true
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-5").
		Return(paidConfirmation(map[string]string{fulfillment.MetadataTrackID: "t1"}), nil)

	_, err := s.service.Fulfill(ctx, buyer(), "sess-5")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUpload))

	records, _ := s.ledger.ListByBuyer(ctx, "buyer-1")
	s.Empty(records)
}

func (s *ServiceSuite) TestPackagingFailureAborts() {
	ctx := context.Background()
	packer := mocks.NewMockPackager(s.ctrl)
	packer.EXPECT().GenerateLicense("Midnight Drive", "Ada B", "a@x.com", gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodePackaging, "render license document"))

	s.service.packer = packer
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-6").
		Return(paidConfirmation(map[string]string{fulfillment.MetadataTrackID: "t1"}), nil)

	_, err := s.service.Fulfill(ctx, buyer(), "sess-6")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePackaging))

	records, _ := s.ledger.ListByBuyer(ctx, "buyer-1")
	s.Empty(records)
}

func (s *ServiceSuite) TestCatalogErrorIsInternal() {
	ctx := context.Background()
	failing := mocks.NewMockCatalog(s.ctrl)
	failing.EXPECT().GetTrack(gomock.Any(), "t1").Return(nil, errors.New("connection refused"))

	s.service.catalog = failing
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-7").
		Return(paidConfirmation(map[string]string{fulfillment.MetadataTrackID: "t1"}), nil)

	_, err := s.service.Fulfill(ctx, buyer(), "sess-7")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestReplayedSessionReusesLedgerRecords() {
	ctx := context.Background()
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-8").
		Return(paidConfirmation(map[string]string{fulfillment.MetadataTrackID: "t1"}), nil).
		Times(2)

	first, err := s.service.Fulfill(ctx, buyer(), "sess-8")
	s.Require().NoError(err)
	second, err := s.service.Fulfill(ctx, buyer(), "sess-8")
	s.Require().NoError(err)

	// The idempotency index resolves the replay to the original record.
	s.Equal(first[0].RecordID, second[0].RecordID)
	records, _ := s.ledger.ListByBuyer(ctx, "buyer-1")
	s.Len(records, 1)
}

func (s *ServiceSuite) TestRefreshLinks() {
	ctx := context.Background()
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-9").
		Return(paidConfirmation(map[string]string{fulfillment.MetadataTrackID: "t1"}), nil)

	results, err := s.service.Fulfill(ctx, buyer(), "sess-9")
	s.Require().NoError(err)

	// A re-mint is only guaranteed a new URL once the expiry window moves, so
	// advance the store clock past the original mint before refreshing.
	s.artifacts.SetClock(func() time.Time { return time.Now().Add(time.Hour) })

	refreshed, err := s.service.RefreshLinks(ctx, buyer(), results[0].RecordID)
	s.Require().NoError(err)
	s.Equal(results[0].TrackID, refreshed.TrackID)
	s.NotEqual(results[0].DownloadURL, refreshed.DownloadURL)
	s.True(refreshed.ExpiresAt.After(results[0].ExpiresAt))

	record, err := s.ledger.FindByID(ctx, results[0].RecordID)
	s.Require().NoError(err)
	s.Contains(refreshed.DownloadURL, record.ZipPath)
}

func (s *ServiceSuite) TestRefreshLinksForeignRecordForbidden() {
	ctx := context.Background()
	s.gateway.EXPECT().Confirm(gomock.Any(), "sess-10").
		Return(paidConfirmation(map[string]string{fulfillment.MetadataTrackID: "t1"}), nil)

	results, err := s.service.Fulfill(ctx, buyer(), "sess-10")
	s.Require().NoError(err)

	other := domain.BuyerIdentity{LedgerID: "buyer-2", StorageAuthID: "storage-uid-2", Email: "b@x.com"}
	_, err = s.service.RefreshLinks(ctx, other, results[0].RecordID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
