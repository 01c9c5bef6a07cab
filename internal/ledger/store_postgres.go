package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// PostgresStore persists purchase records. The table carries a
// UNIQUE (buyer_id, track_id, session_ref) index so a replayed fulfillment
// resolves to the already-written row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema creates the purchase_records table. Invoked by main on startup and
// by integration tests against a fresh database.
const Schema = `
CREATE TABLE IF NOT EXISTS purchase_records (
	id            UUID PRIMARY KEY,
	buyer_id      TEXT NOT NULL,
	track_id      TEXT NOT NULL,
	track_title   TEXT NOT NULL,
	price         NUMERIC(10,2) NOT NULL,
	session_ref   TEXT NOT NULL,
	zip_path      TEXT NOT NULL,
	license_path  TEXT NOT NULL,
	purchased_at  TIMESTAMPTZ NOT NULL,
	expires_at    TIMESTAMPTZ NOT NULL,
	UNIQUE (buyer_id, track_id, session_ref)
);
CREATE INDEX IF NOT EXISTS purchase_records_buyer_idx ON purchase_records (buyer_id);
`

// EnsureSchema applies the ledger schema.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, record *PurchaseRecord) (uuid.UUID, error) {
	const insert = `
		INSERT INTO purchase_records
			(id, buyer_id, track_id, track_title, price, session_ref, zip_path, license_path, purchased_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (buyer_id, track_id, session_ref) DO NOTHING`

	result, err := s.db.ExecContext(ctx, insert,
		record.ID, record.BuyerID, record.TrackID, record.TrackTitle, record.Price,
		record.SessionRef, record.ZipPath, record.LicensePath, record.PurchasedAt, record.ExpiresAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("append purchase record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return uuid.Nil, fmt.Errorf("append purchase record: %w", err)
	}
	if rows > 0 {
		return record.ID, nil
	}

	// The (buyer, track, session) row already exists; return its id.
	const find = `
		SELECT id FROM purchase_records
		WHERE buyer_id = $1 AND track_id = $2 AND session_ref = $3`
	var existing uuid.UUID
	if err := s.db.QueryRowContext(ctx, find, record.BuyerID, record.TrackID, record.SessionRef).Scan(&existing); err != nil {
		return uuid.Nil, fmt.Errorf("find existing purchase record: %w", err)
	}
	return existing, nil
}

func (s *PostgresStore) ListByBuyer(ctx context.Context, buyerID string) ([]*PurchaseRecord, error) {
	const query = `
		SELECT id, buyer_id, track_id, track_title, price, session_ref, zip_path, license_path, purchased_at, expires_at
		FROM purchase_records WHERE buyer_id = $1`

	rows, err := s.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list purchases for %s: %w", buyerID, err)
	}
	defer rows.Close()

	var records []*PurchaseRecord
	for rows.Next() {
		var r PurchaseRecord
		if err := rows.Scan(&r.ID, &r.BuyerID, &r.TrackID, &r.TrackTitle, &r.Price,
			&r.SessionRef, &r.ZipPath, &r.LicensePath, &r.PurchasedAt, &r.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan purchase record: %w", err)
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list purchases for %s: %w", buyerID, err)
	}

	// Newest-first, sorted here rather than in SQL: the ordering contract
	// belongs to the store, not to whichever index the table happens to have.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PurchasedAt.After(records[j].PurchasedAt)
	})
	return records, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*PurchaseRecord, error) {
	const query = `
		SELECT id, buyer_id, track_id, track_title, price, session_ref, zip_path, license_path, purchased_at, expires_at
		FROM purchase_records WHERE id = $1`

	var r PurchaseRecord
	err := s.db.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.BuyerID, &r.TrackID, &r.TrackTitle, &r.Price,
		&r.SessionRef, &r.ZipPath, &r.LicensePath, &r.PurchasedAt, &r.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find purchase record %s: %w", id, err)
	}
	return &r, nil
}
