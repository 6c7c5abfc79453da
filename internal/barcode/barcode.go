// Package barcode maps scanned barcodes to catalog entries.
package barcode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"medstock/m/domain"
)

// Registry resolves barcodes. Lookups that match nothing resolve to the
// sentinel medicine instead of failing.
type Registry struct {
	sentinelID int64
}

// NewRegistry constructs a Registry that falls back to sentinelID.
func NewRegistry(sentinelID int64) *Registry {
	return &Registry{sentinelID: sentinelID}
}

func (r *Registry) SentinelID() int64 { return r.sentinelID }

// FindBinding returns the binding of medicineID, or nil when it has none.
func (r *Registry) FindBinding(ctx context.Context, q sqlx.ExtContext, medicineID int64) (*domain.Barcode, error) {
	var b domain.Barcode
	err := sqlx.GetContext(ctx, q, &b, q.Rebind(`SELECT barcode_id, medicine_id, barcode_1, barcode_2
		FROM medicine_barcode WHERE medicine_id = ?`), medicineID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load barcode of medicine %d: %w", medicineID, err)
	}
	return &b, nil
}

// FindMedicineByBarcode searches primary barcodes first, then secondary ones.
func (r *Registry) FindMedicineByBarcode(ctx context.Context, q sqlx.ExtContext, code string) (int64, error) {
	for _, column := range []string{"barcode_1", "barcode_2"} {
		var id int64
		err := sqlx.GetContext(ctx, q, &id, q.Rebind(`SELECT medicine_id FROM medicine_barcode
			WHERE `+column+` = ? ORDER BY barcode_id LIMIT 1`), code)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("lookup barcode %q: %w", code, err)
		}
	}
	return r.sentinelID, nil
}

// CreateBinding binds code as the primary barcode of medicineID.
func (r *Registry) CreateBinding(ctx context.Context, q sqlx.ExtContext, medicineID int64, code string) (*domain.Barcode, error) {
	existing, err := r.FindBinding(ctx, q, medicineID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyBound
	}

	b := domain.Barcode{MedicineID: medicineID, Barcode1: &code}
	err = q.QueryRowxContext(ctx, q.Rebind(`INSERT INTO medicine_barcode (medicine_id, barcode_1)
		VALUES (?, ?) RETURNING barcode_id`), medicineID, code).Scan(&b.ID)
	if err != nil {
		return nil, fmt.Errorf("bind barcode %q to medicine %d: %w", code, medicineID, err)
	}
	return &b, nil
}
