package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medstock/m/domain"
	"medstock/m/internal/database/dbtest"
)

const catalogCSV = `medicine_name,medicine_name_bg,medicine_group,manufacturer,opiate,atc_code
Ibuprofen,Ибупрофен,Analgesics,Acme,false,M01AE01
Morphine,,Opioids,Acme,true,N02AA01
,,,,,
Ibuprofen,,Analgesics,Other,false,
`

func TestLoad(t *testing.T) {
	db := dbtest.New(t)

	n, err := load(context.Background(), db, strings.NewReader(catalogCSV), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var meds []domain.Medicine
	require.NoError(t, db.Select(&meds, `SELECT * FROM medicine_detail WHERE medicine_id <> ? ORDER BY medicine_id`, dbtest.SentinelID))
	require.Len(t, meds, 2)

	assert.Equal(t, "Ибупрофен", meds[0].DisplayName())
	require.NotNil(t, meds[0].ATCCode)
	assert.Equal(t, "M01AE01", *meds[0].ATCCode)
	assert.False(t, meds[0].Opiate)

	assert.Equal(t, "Morphine", meds[1].DisplayName())
	assert.Nil(t, meds[1].NameBG)
	assert.True(t, meds[1].Opiate)
}

func TestLoad_Rerun(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	_, err := load(ctx, db, strings.NewReader(catalogCSV), zap.NewNop())
	require.NoError(t, err)
	n, err := load(ctx, db, strings.NewReader(catalogCSV), zap.NewNop())
	require.NoError(t, err)

	assert.Zero(t, n)
	assert.Equal(t, 3, dbtest.Count(t, db, "medicine_detail"))
}

func TestLoad_MatchesEitherName(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	_, err := load(ctx, db, strings.NewReader(catalogCSV), zap.NewNop())
	require.NoError(t, err)

	more := `medicine_name,medicine_name_bg
Ibuprofen 200,Ибупрофен
Ибупрофен,
Naproxen,Напроксен
`
	n, err := load(ctx, db, strings.NewReader(more), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, 4, dbtest.Count(t, db, "medicine_detail"))
}

func TestLoad_NoNameColumn(t *testing.T) {
	db := dbtest.New(t)

	_, err := load(context.Background(), db, strings.NewReader("atc_code\nN02AA01\n"), zap.NewNop())
	assert.Error(t, err)
}

func TestLoadMedicines_File(t *testing.T) {
	db := dbtest.New(t)
	path := filepath.Join(t.TempDir(), "medicine.csv")
	require.NoError(t, os.WriteFile(path, []byte(catalogCSV), 0o600))

	n, err := LoadMedicines(context.Background(), db, path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = LoadMedicines(context.Background(), db, filepath.Join(t.TempDir(), "missing.csv"), zap.NewNop())
	assert.Error(t, err)
}
