// Package catalog resolves free-text medicine names to catalog entries.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"medstock/m/domain"
)

const columns = `medicine_id, medicine_name_bg, medicine_group, manufacturer, sales_measure, medicine_name, atc_code, opiate, nhif_code`

// Resolver looks up and creates catalog entries.
type Resolver struct {
	db *sqlx.DB
}

// NewResolver constructs a Resolver.
func NewResolver(db *sqlx.DB) *Resolver {
	return &Resolver{db: db}
}

// ResolveOrCreate returns the entry whose localized or canonical name equals
// name exactly, creating one with only the canonical name set when absent.
// The insert goes through the resolver's own handle so the id is committed
// before the caller opens its transaction.
func (r *Resolver) ResolveOrCreate(ctx context.Context, name string) (*domain.Medicine, error) {
	var m domain.Medicine
	query := r.db.Rebind(`SELECT ` + columns + ` FROM medicine_detail
		WHERE medicine_name_bg = ? OR medicine_name = ?
		ORDER BY medicine_id LIMIT 1`)
	err := r.db.GetContext(ctx, &m, query, name, name)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup medicine %q: %w", name, err)
	}

	var id int64
	insert := r.db.Rebind(`INSERT INTO medicine_detail (medicine_name) VALUES (?) RETURNING medicine_id`)
	if err := r.db.QueryRowxContext(ctx, insert, name).Scan(&id); err != nil {
		return nil, fmt.Errorf("create medicine %q: %w", name, err)
	}
	return &domain.Medicine{ID: id, Name: &name}, nil
}

// Get loads an entry through q, which may be a transaction.
func Get(ctx context.Context, q sqlx.ExtContext, id int64) (*domain.Medicine, error) {
	var m domain.Medicine
	err := sqlx.GetContext(ctx, q, &m, q.Rebind(`SELECT `+columns+` FROM medicine_detail WHERE medicine_id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load medicine %d: %w", id, err)
	}
	return &m, nil
}

func (r *Resolver) Get(ctx context.Context, id int64) (*domain.Medicine, error) {
	return Get(ctx, r.db, id)
}

// EnsureExists fails when id is not in the catalog. Used at startup to check
// the configured sentinel entry.
func (r *Resolver) EnsureExists(ctx context.Context, id int64) error {
	if _, err := r.Get(ctx, id); err != nil {
		return fmt.Errorf("medicine %d: %w", id, err)
	}
	return nil
}
