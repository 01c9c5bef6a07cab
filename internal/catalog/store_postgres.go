package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore reads the tracks table the catalog admin flow maintains.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetTrack(ctx context.Context, id string) (*Track, error) {
	const query = `SELECT id, title, price, audio_url FROM tracks WHERE id = $1`

	var track Track
	err := s.db.QueryRowContext(ctx, query, id).Scan(&track.ID, &track.Title, &track.Price, &track.AudioURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get track %s: %w", id, err)
	}
	return &track, nil
}
