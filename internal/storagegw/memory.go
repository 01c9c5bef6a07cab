package storagegw

import (
	"context"
	"fmt"
	"sync"
	"time"

	dErrors "beatvault/pkg/domain-errors"
)

// InMemoryStore is the test double for the gateway: objects live in a map and
// signed URLs carry a mint counter so tests can tell re-mints apart. The real
// signer only yields a different URL once the expiry second changes, and the
// gateway's singleflight relies on same-second mints being identical; tests
// asserting URL freshness must advance the clock via SetClock rather than
// lean on the counter.
type InMemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	mints   int
	now     func() time.Time

	// FailUploads makes every Upload fail, for error-path tests.
	FailUploads bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		now:     time.Now,
	}
}

// SetClock pins the store's clock for deterministic expiries.
func (s *InMemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *InMemoryStore) Upload(_ context.Context, path string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUploads {
		return dErrors.New(dErrors.CodeUpload, "blob store returned status 503 for "+path)
	}
	s.objects[path] = append([]byte(nil), data...)
	s.types[path] = contentType
	return nil
}

func (s *InMemoryStore) SignURL(path string, ttl time.Duration) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mints++
	expiresAt := s.now().Add(ttl)
	url := fmt.Sprintf("https://signed.example.com/%s?expires=%d&mint=%d", path, expiresAt.Unix(), s.mints)
	return url, expiresAt, nil
}

// Object returns the stored bytes for path, or nil.
func (s *InMemoryStore) Object(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[path]
}

// ContentType returns the stored content type for path.
func (s *InMemoryStore) ContentType(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.types[path]
}

// Paths returns all stored object paths.
func (s *InMemoryStore) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.objects))
	for p := range s.objects {
		paths = append(paths, p)
	}
	return paths
}
