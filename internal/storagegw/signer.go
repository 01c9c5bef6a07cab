package storagegw

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Signer mints time-bounded signed URLs over the storage host's public base.
// Objects are private by default; a signed URL is the only sanctioned read
// path. Signing is local (HMAC over the object path and expiry) and does not
// touch the storage service, so links can be re-minted at any time without
// rebuilding or re-uploading anything.
type Signer struct {
	publicBaseURL string
	bucket        string
	keyID         string
	key           []byte
}

func NewSigner(publicBaseURL, bucket, keyID string, key []byte) *Signer {
	return &Signer{
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		bucket:        bucket,
		keyID:         keyID,
		key:           key,
	}
}

// Sign returns an HTTPS URL granting read access to path until now+ttl.
func (s *Signer) Sign(path string, ttl time.Duration, now time.Time) (string, time.Time) {
	expiresAt := now.Add(ttl)
	expires := strconv.FormatInt(expiresAt.Unix(), 10)

	mac := hmac.New(sha256.New, s.key)
	fmt.Fprintf(mac, "GET\n%s/%s\n%s", s.bucket, path, expires)
	signature := hex.EncodeToString(mac.Sum(nil))

	query := url.Values{}
	query.Set("keyId", s.keyID)
	query.Set("expires", expires)
	query.Set("signature", signature)

	signed := fmt.Sprintf("%s/%s/%s?%s", s.publicBaseURL, s.bucket, escapePath(path), query.Encode())
	return signed, expiresAt
}

// Verify checks a signature produced by Sign. Used by tests and by any
// co-deployed download edge that shares the key.
func (s *Signer) Verify(path, expires, signature string) bool {
	mac := hmac.New(sha256.New, s.key)
	fmt.Fprintf(mac, "GET\n%s/%s\n%s", s.bucket, path, expires)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(signature))
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
