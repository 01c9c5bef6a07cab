package storagegw

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner() *Signer {
	return NewSigner("https://downloads.example.com", "beatvault-artifacts", "primary", []byte("test-signing-key"))
}

func TestSignProducesVerifiableHTTPSURL(t *testing.T) {
	signer := newTestSigner()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	signed, expiresAt, path := signAndParse(t, signer, "purchases/u1/123_t1.zip", 7*24*time.Hour, now)

	assert.True(t, strings.HasPrefix(signed.String(), "https://"))
	assert.Equal(t, now.Add(7*24*time.Hour), expiresAt)
	assert.Equal(t, "/beatvault-artifacts/purchases/u1/123_t1.zip", path)

	query := signed.Query()
	assert.Equal(t, "primary", query.Get("keyId"))
	assert.True(t, signer.Verify("purchases/u1/123_t1.zip", query.Get("expires"), query.Get("signature")))
}

func TestReSignSamePathYieldsFreshURL(t *testing.T) {
	signer := newTestSigner()
	first, firstExpiry := signer.Sign("purchases/u1/123_t1.zip", 7*24*time.Hour, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	second, secondExpiry := signer.Sign("purchases/u1/123_t1.zip", 7*24*time.Hour, time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))

	// Different URLs and expiries, same underlying object path.
	assert.NotEqual(t, first, second)
	assert.True(t, secondExpiry.After(firstExpiry))

	firstURL, err := url.Parse(first)
	require.NoError(t, err)
	secondURL, err := url.Parse(second)
	require.NoError(t, err)
	assert.Equal(t, firstURL.Path, secondURL.Path)
}

func TestReSignSameSecondIsStable(t *testing.T) {
	signer := newTestSigner()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, _ := signer.Sign("purchases/u1/123_t1.zip", 7*24*time.Hour, now)
	second, _ := signer.Sign("purchases/u1/123_t1.zip", 7*24*time.Hour, now)

	// Same mint second, same URL: the gateway collapses concurrent mints on
	// this guarantee, so link freshness only moves with the expiry window.
	assert.Equal(t, first, second)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	signer := newTestSigner()
	signed, _ := signer.Sign("purchases/u1/123_t1.zip", time.Hour, time.Now())

	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	query := parsed.Query()

	assert.False(t, signer.Verify("purchases/u1/OTHER.zip", query.Get("expires"), query.Get("signature")))
	assert.False(t, signer.Verify("purchases/u1/123_t1.zip", query.Get("expires"), "deadbeef"))
}

func TestGatewaySignURL(t *testing.T) {
	gw := New(testConfig("https://storage.internal.example.com"), nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gw.now = func() time.Time { return fixed }

	signed, expiresAt, err := gw.SignURL("purchases/u1/123_t1.zip", 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(7*24*time.Hour), expiresAt)
	assert.Contains(t, signed, "purchases/u1/123_t1.zip")
}

func signAndParse(t *testing.T, signer *Signer, path string, ttl time.Duration, now time.Time) (*url.URL, time.Time, string) {
	t.Helper()
	signed, expiresAt := signer.Sign(path, ttl, now)
	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	return parsed, expiresAt, parsed.Path
}
