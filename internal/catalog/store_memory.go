package catalog

import (
	"context"
	"sync"
)

// InMemoryStore backs tests and local runs without a database.
type InMemoryStore struct {
	mu     sync.RWMutex
	tracks map[string]Track
}

func NewInMemoryStore(tracks ...Track) *InMemoryStore {
	s := &InMemoryStore{tracks: make(map[string]Track, len(tracks))}
	for _, t := range tracks {
		s.tracks[t.ID] = t
	}
	return s
}

func (s *InMemoryStore) Put(track Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks[track.ID] = track
}

func (s *InMemoryStore) GetTrack(_ context.Context, id string) (*Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	track, ok := s.tracks[id]
	if !ok {
		return nil, nil
	}
	return &track, nil
}
