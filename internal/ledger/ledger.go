// Package ledger keeps per-medicine on-hand quantity and reference price.
//
// Every mutation runs on the caller's query handle so it commits atomically
// with the purchase or sale record that caused it. Quantities never go below
// zero.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"medstock/m/domain"
)

// OversellPolicy decides what a debit does when stock is short.
type OversellPolicy string

const (
	// Clamp lets the sale through, zeroes the level and reports the shortfall.
	Clamp OversellPolicy = "clamp"
	// Reject fails the debit with domain.ErrInsufficientInventory.
	Reject OversellPolicy = "reject"
)

// Ledger keeps per-medicine stock levels in the inventory table.
type Ledger struct {
	policy OversellPolicy
}

// New constructs a Ledger. An empty policy means Clamp.
func New(policy OversellPolicy) *Ledger {
	if policy == "" {
		policy = Clamp
	}
	return &Ledger{policy: policy}
}

func (l *Ledger) Policy() OversellPolicy { return l.policy }

// DebitResult is what a sale needs to snapshot.
type DebitResult struct {
	// Price is nil when the medicine has no inventory row.
	Price *float64
	// Oversold is the part of the request that was not in stock.
	Oversold float64
}

// Level returns the inventory row of medicineID, or nil.
func (l *Ledger) Level(ctx context.Context, q sqlx.ExtContext, medicineID int64) (*domain.InventoryLevel, error) {
	var lvl domain.InventoryLevel
	err := sqlx.GetContext(ctx, q, &lvl, q.Rebind(`SELECT inventory_id, medicine_id, price, quantity, expiry_date
		FROM inventory WHERE medicine_id = ?`), medicineID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load inventory of medicine %d: %w", medicineID, err)
	}
	return &lvl, nil
}

// Credit adds quantity to the level of medicineID. An existing row keeps its
// price and expiry date; a new row takes the given ones.
func (l *Ledger) Credit(ctx context.Context, q sqlx.ExtContext, medicineID int64, quantity, price float64, expiry *string) error {
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO inventory (medicine_id, price, quantity, expiry_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (medicine_id)
		DO UPDATE SET quantity = inventory.quantity + excluded.quantity
	`), medicineID, price, quantity, expiry)
	if err != nil {
		return fmt.Errorf("credit medicine %d: %w", medicineID, err)
	}
	return nil
}

// Debit removes quantity from the level of medicineID and returns the
// current price. Short stock follows the ledger's oversell policy.
func (l *Ledger) Debit(ctx context.Context, q sqlx.ExtContext, medicineID int64, quantity float64) (DebitResult, error) {
	lvl, err := l.Level(ctx, q, medicineID)
	if err != nil {
		return DebitResult{}, err
	}
	if lvl == nil {
		return DebitResult{}, nil
	}

	res := DebitResult{Price: &lvl.Price}
	remaining := lvl.Quantity - quantity
	if remaining < 0 {
		if l.policy == Reject {
			return DebitResult{}, fmt.Errorf("medicine %d has %g, wants %g: %w",
				medicineID, lvl.Quantity, quantity, domain.ErrInsufficientInventory)
		}
		res.Oversold = -remaining
		remaining = 0
	}

	if _, err := q.ExecContext(ctx, q.Rebind(`UPDATE inventory SET quantity = ? WHERE inventory_id = ?`), remaining, lvl.ID); err != nil {
		return DebitResult{}, fmt.Errorf("debit medicine %d: %w", medicineID, err)
	}
	return res, nil
}

// Adjust adds delta to the level of medicineID, flooring the result at zero.
// Medicines without an inventory row are left alone.
func (l *Ledger) Adjust(ctx context.Context, q sqlx.ExtContext, medicineID int64, delta float64) error {
	_, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE inventory
		SET quantity = CASE WHEN quantity + ? < 0 THEN 0 ELSE quantity + ? END
		WHERE medicine_id = ?
	`), delta, delta, medicineID)
	if err != nil {
		return fmt.Errorf("adjust medicine %d by %g: %w", medicineID, delta, err)
	}
	return nil
}
