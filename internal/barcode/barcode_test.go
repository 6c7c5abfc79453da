package barcode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstock/m/domain"
	"medstock/m/internal/database/dbtest"
)

func TestFindMedicineByBarcode(t *testing.T) {
	db := dbtest.New(t)
	reg := NewRegistry(dbtest.SentinelID)
	ctx := context.Background()

	primary := dbtest.Medicine(t, db, "Paracetamol", false)
	secondary := dbtest.Medicine(t, db, "Analgin", false)
	dbtest.Barcode(t, db, primary, "3800001")
	_, err := db.Exec(`INSERT INTO medicine_barcode (medicine_id, barcode_1, barcode_2) VALUES (?, ?, ?)`, secondary, "3800002", "3800003")
	require.NoError(t, err)

	tests := []struct {
		name string
		code string
		want int64
	}{
		{"primary", "3800001", primary},
		{"secondary column", "3800003", secondary},
		{"unknown falls back to sentinel", "000", dbtest.SentinelID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.FindMedicineByBarcode(ctx, db, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindMedicineByBarcode_PrimaryWins(t *testing.T) {
	db := dbtest.New(t)
	reg := NewRegistry(dbtest.SentinelID)
	ctx := context.Background()

	a := dbtest.Medicine(t, db, "A", false)
	b := dbtest.Medicine(t, db, "B", false)
	_, err := db.Exec(`INSERT INTO medicine_barcode (medicine_id, barcode_1, barcode_2) VALUES (?, ?, ?)`, a, "111", "222")
	require.NoError(t, err)
	dbtest.Barcode(t, db, b, "222")

	got, err := reg.FindMedicineByBarcode(ctx, db, "222")
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestCreateBinding(t *testing.T) {
	db := dbtest.New(t)
	reg := NewRegistry(dbtest.SentinelID)
	ctx := context.Background()
	id := dbtest.Medicine(t, db, "Cetirizine", false)

	none, err := reg.FindBinding(ctx, db, id)
	require.NoError(t, err)
	assert.Nil(t, none)

	b, err := reg.CreateBinding(ctx, db, id, "4000")
	require.NoError(t, err)
	assert.Equal(t, id, b.MedicineID)
	assert.Equal(t, "4000", *b.Barcode1)

	found, err := reg.FindBinding(ctx, db, id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, b.ID, found.ID)

	_, err = reg.CreateBinding(ctx, db, id, "4001")
	assert.ErrorIs(t, err, domain.ErrAlreadyBound)
	assert.Equal(t, 1, dbtest.Count(t, db, "medicine_barcode"))
}
