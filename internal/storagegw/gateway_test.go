package storagegw

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "beatvault/pkg/domain-errors"
)

func testConfig(uploadURL string) Config {
	return Config{
		UploadBaseURL: uploadURL,
		PublicBaseURL: "https://downloads.example.com",
		Bucket:        "beatvault-artifacts",
		SigningKeyID:  "primary",
		SigningKey:    []byte("test-signing-key"),
	}
}

func TestUpload(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	gw := New(testConfig(srv.URL), srv.Client())
	err := gw.Upload(context.Background(), "purchases/u1/123_t1.zip", []byte("zip-bytes"), "application/zip")
	require.NoError(t, err)

	assert.Equal(t, "/beatvault-artifacts/purchases/u1/123_t1.zip", gotPath)
	assert.Equal(t, "application/zip", gotContentType)
	assert.Equal(t, []byte("zip-bytes"), gotBody)
}

func TestUploadFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := New(testConfig(srv.URL), srv.Client())
	err := gw.Upload(context.Background(), "purchases/u1/123_t1.zip", []byte("zip"), "application/zip")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUpload))
}
