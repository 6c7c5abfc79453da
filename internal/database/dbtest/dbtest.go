// Package dbtest opens a migrated in-memory SQLite database for package tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medstock/m/internal/database"
	"medstock/m/internal/migrations"
)

// SentinelID is the unbarcoded-item entry seeded by the initial migration.
const SentinelID int64 = 1

// New opens a fresh in-memory database with every migration applied.
func New(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.Connect("sqlite", ":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Run(context.Background(), db, zap.NewNop()))
	return db
}

// Medicine inserts a catalog entry and returns its id.
func Medicine(t testing.TB, db *sqlx.DB, name string, opiate bool) int64 {
	t.Helper()
	var id int64
	err := db.QueryRowx(`INSERT INTO medicine_detail (medicine_name, opiate) VALUES (?, ?) RETURNING medicine_id`, name, opiate).Scan(&id)
	require.NoError(t, err)
	return id
}

// Barcode binds code as the primary barcode of medicineID.
func Barcode(t testing.TB, db *sqlx.DB, medicineID int64, code string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO medicine_barcode (medicine_id, barcode_1) VALUES (?, ?)`, medicineID, code)
	require.NoError(t, err)
}

// Stock sets the inventory level of medicineID.
func Stock(t testing.TB, db *sqlx.DB, medicineID int64, quantity, price float64) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO inventory (medicine_id, price, quantity) VALUES (?, ?, ?)`, medicineID, price, quantity)
	require.NoError(t, err)
}

// Quantity returns the on-hand quantity, or -1 when no level row exists.
func Quantity(t testing.TB, db *sqlx.DB, medicineID int64) float64 {
	t.Helper()
	var q float64
	err := db.Get(&q, `SELECT quantity FROM inventory WHERE medicine_id = ?`, medicineID)
	if err != nil {
		return -1
	}
	return q
}

// Count returns the number of rows in table.
func Count(t testing.TB, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}
