package pending

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"medstock/m/domain"
)

// SQLStore keeps records in the pending_purchase table, so tokens survive
// restarts and are shared by every instance on the same database.
type SQLStore struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLStore creates a store; ttl of zero means records never expire.
func NewSQLStore(db *sqlx.DB, ttl time.Duration) *SQLStore {
	return &SQLStore{db: db, ttl: ttl, now: time.Now}
}

func (s *SQLStore) Put(ctx context.Context, token string, rec domain.PendingPurchase) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	var expiresAt *int64
	if s.ttl > 0 {
		at := s.now().Add(s.ttl).Unix()
		expiresAt = &at
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO pending_purchase (token, payload, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (token) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at
	`), token, string(raw), s.now().UTC(), expiresAt)
	if err != nil {
		return fmt.Errorf("store pending purchase: %w", err)
	}
	return nil
}

func (s *SQLStore) Take(ctx context.Context, token string) (*domain.PendingPurchase, error) {
	var row struct {
		Payload   string `db:"payload"`
		ExpiresAt *int64 `db:"expires_at"`
	}
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`DELETE FROM pending_purchase WHERE token = ? RETURNING payload, expires_at`), token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("take pending purchase: %w", err)
	}
	if row.ExpiresAt != nil && s.now().Unix() >= *row.ExpiresAt {
		return nil, domain.ErrInvalidToken
	}

	var rec domain.PendingPurchase
	if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
		return nil, fmt.Errorf("decode pending purchase: %w", err)
	}
	return &rec, nil
}
