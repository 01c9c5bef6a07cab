package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "beatvault/pkg/domain-errors"
	"beatvault/pkg/requestcontext"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (s stubValidator) Validate(string) (*Claims, error) { return s.claims, s.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRequireBuyerInjectsIdentity(t *testing.T) {
	validator := stubValidator{claims: &Claims{
		BuyerID:     "buyer-1",
		StorageID:   "storage-1",
		DisplayName: "Ada B",
		Email:       "ada@example.com",
	}}

	var seenBuyerID, seenStorageID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buyer := requestcontext.Buyer(r.Context())
		seenBuyerID = buyer.LedgerID
		seenStorageID = buyer.StorageAuthID
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/purchases", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	RequireBuyer(validator, discardLogger())(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "buyer-1", seenBuyerID)
	assert.Equal(t, "storage-1", seenStorageID)
}

func TestRequireBuyerRejectsMissingToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/purchases", nil)
	rec := httptest.NewRecorder()

	RequireBuyer(stubValidator{}, discardLogger())(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireBuyerRejectsInvalidToken(t *testing.T) {
	validator := stubValidator{err: dErrors.Wrap(dErrors.CodeUnauthorized, "invalid session token", errors.New("bad signature"))}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/purchases", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()

	RequireBuyer(validator, discardLogger())(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
