// Package storagegw is the artifact store gateway: it uploads finished
// download packages to durable blob storage and mints signed read URLs for
// them. Signing is a first-class operation, independent of upload, because
// dashboard link refreshes re-sign stored paths long after the upload.
package storagegw

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	dErrors "beatvault/pkg/domain-errors"
)

// Gateway implements upload and sign-on-demand against an HTTP blob store.
type Gateway struct {
	uploadBaseURL string
	bucket        string
	signer        *Signer
	httpClient    *http.Client
	group         singleflight.Group
	now           func() time.Time
}

// Config carries the gateway's explicit configuration; nothing is read from
// the environment here.
type Config struct {
	UploadBaseURL string
	PublicBaseURL string
	Bucket        string
	SigningKeyID  string
	SigningKey    []byte
}

func New(cfg Config, httpClient *http.Client) *Gateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Gateway{
		uploadBaseURL: strings.TrimRight(cfg.UploadBaseURL, "/"),
		bucket:        cfg.Bucket,
		signer:        NewSigner(cfg.PublicBaseURL, cfg.Bucket, cfg.SigningKeyID, cfg.SigningKey),
		httpClient:    httpClient,
		now:           time.Now,
	}
}

// Upload writes the object under the exact path the caller computed. The path
// layout (purchases/<storageAuthId>/<epochMs>_<trackId>.zip and the
// _rights.pdf sibling) is a durable contract relied on by cleanup tooling.
func (g *Gateway) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	endpoint := fmt.Sprintf("%s/%s/%s", g.uploadBaseURL, g.bucket, escapePath(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUpload, "build upload request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUpload, "upload artifact", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return dErrors.New(dErrors.CodeUpload,
			fmt.Sprintf("blob store returned status %d for %s", resp.StatusCode, path))
	}
	return nil
}

// SignURL mints a fresh signed URL for an already-stored object. Concurrent
// mints for the same path and TTL within the same second collapse to one
// signature via singleflight.
func (g *Gateway) SignURL(path string, ttl time.Duration) (string, time.Time, error) {
	now := g.now()
	key := fmt.Sprintf("%s|%d|%d", path, int64(ttl.Seconds()), now.Unix())

	type signed struct {
		url       string
		expiresAt time.Time
	}
	v, err, _ := g.group.Do(key, func() (any, error) {
		url, expiresAt := g.signer.Sign(path, ttl, now)
		return signed{url: url, expiresAt: expiresAt}, nil
	})
	if err != nil {
		return "", time.Time{}, dErrors.Wrap(dErrors.CodeInternal, "sign url", err)
	}
	result := v.(signed)
	return result.url, result.expiresAt, nil
}
