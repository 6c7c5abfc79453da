package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstock/m/domain"
	"medstock/m/internal/database/dbtest"
)

func TestResolveOrCreate_CreatesOnce(t *testing.T) {
	db := dbtest.New(t)
	r := NewResolver(db)
	ctx := context.Background()

	first, err := r.ResolveOrCreate(ctx, "Aspirin 500mg")
	require.NoError(t, err)
	require.NotNil(t, first.Name)
	assert.Equal(t, "Aspirin 500mg", *first.Name)
	assert.Nil(t, first.NameBG)

	second, err := r.ResolveOrCreate(ctx, "Aspirin 500mg")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, dbtest.Count(t, db, "medicine_detail"))
}

func TestResolveOrCreate_MatchesLocalizedName(t *testing.T) {
	db := dbtest.New(t)
	r := NewResolver(db)
	ctx := context.Background()

	var id int64
	require.NoError(t, db.QueryRowx(`INSERT INTO medicine_detail (medicine_name_bg, medicine_name) VALUES (?, ?) RETURNING medicine_id`, "Аспирин", "Aspirin").Scan(&id))

	m, err := r.ResolveOrCreate(ctx, "Аспирин")
	require.NoError(t, err)
	assert.Equal(t, id, m.ID)
	assert.Equal(t, "Аспирин", m.DisplayName())
}

func TestResolveOrCreate_CaseSensitive(t *testing.T) {
	db := dbtest.New(t)
	r := NewResolver(db)
	ctx := context.Background()

	a, err := r.ResolveOrCreate(ctx, "Ibuprofen")
	require.NoError(t, err)
	b, err := r.ResolveOrCreate(ctx, "ibuprofen")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestGet(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	id := dbtest.Medicine(t, db, "Morphine", true)

	m, err := Get(ctx, db, id)
	require.NoError(t, err)
	assert.True(t, m.Opiate)
	assert.Equal(t, "Morphine", m.DisplayName())

	_, err = Get(ctx, db, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEnsureExists(t *testing.T) {
	db := dbtest.New(t)
	r := NewResolver(db)
	ctx := context.Background()

	assert.NoError(t, r.EnsureExists(ctx, dbtest.SentinelID))
	assert.ErrorIs(t, r.EnsureExists(ctx, 404), domain.ErrNotFound)
}
