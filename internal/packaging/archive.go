package packaging

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	dErrors "beatvault/pkg/domain-errors"
)

// defaultAudioExt is used when a blob reference carries no file extension.
const defaultAudioExt = ".mp3"

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Packager builds per-item download packages. One archive per item; cart items
// are never merged.
type Packager struct {
	httpClient   *http.Client
	contactEmail string
}

func New(httpClient *http.Client, contactEmail string) *Packager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Packager{httpClient: httpClient, contactEmail: contactEmail}
}

// BuildArchive fetches the track's audio blob and returns a zip with exactly
// two entries: the audio under a sanitized title and the rights document as
// its sibling. Entry names are fixed per item, so they cannot collide.
func (p *Packager) BuildArchive(ctx context.Context, audioBlobRef, trackTitle string, licensePDF []byte) ([]byte, error) {
	audio, err := p.fetchAudio(ctx, audioBlobRef)
	if err != nil {
		return nil, err
	}

	base := SafeBaseName(trackTitle)
	ext := audioExtension(audioBlobRef)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entry, err := zw.Create(base + ext)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodePackaging, "create audio entry", err)
	}
	if _, err := entry.Write(audio); err != nil {
		return nil, dErrors.Wrap(dErrors.CodePackaging, "write audio entry", err)
	}

	entry, err = zw.Create(base + "_Rights.pdf")
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodePackaging, "create rights entry", err)
	}
	if _, err := entry.Write(licensePDF); err != nil {
		return nil, dErrors.Wrap(dErrors.CodePackaging, "write rights entry", err)
	}

	if err := zw.Close(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodePackaging, "finalize archive", err)
	}
	return buf.Bytes(), nil
}

func (p *Packager) fetchAudio(ctx context.Context, blobRef string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, blobRef, nil)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeAssetFetch, "build audio request", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeAssetFetch, "fetch audio blob", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, dErrors.New(dErrors.CodeAssetFetch,
			fmt.Sprintf("audio blob fetch returned status %d", resp.StatusCode))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeAssetFetch, "read audio blob", err)
	}
	return audio, nil
}

// SafeBaseName strips everything outside [A-Za-z0-9] from a title, collapsing
// runs to a single underscore.
func SafeBaseName(title string) string {
	base := unsafeNameChars.ReplaceAllString(title, "_")
	base = strings.Trim(base, "_")
	if base == "" {
		return "track"
	}
	return base
}

// audioExtension takes the extension from the blob reference's URL-decoded
// path, defaulting when absent.
func audioExtension(blobRef string) string {
	ref := blobRef
	if parsed, err := url.Parse(blobRef); err == nil && parsed.Path != "" {
		ref = parsed.Path
	}
	if decoded, err := url.PathUnescape(ref); err == nil {
		ref = decoded
	}
	if ext := path.Ext(ref); ext != "" {
		return ext
	}
	return defaultAudioExt
}
