package pending

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstock/m/domain"
	"medstock/m/internal/database/dbtest"
)

func record() domain.PendingPurchase {
	qty, price := 12.0, 3.4
	expiry, batch, supplier := "2027-05-01", "B-77", "SUP-1"
	return domain.PendingPurchase{
		MedicineID:   7,
		Quantity:     &qty,
		Price:        &price,
		ExpiryDate:   &expiry,
		BatchNumber:  &batch,
		SupplierCode: &supplier,
	}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), mr
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("unknown token", func(t *testing.T) {
		_, err := s.Take(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("take consumes", func(t *testing.T) {
		token := NewToken()
		require.NoError(t, s.Put(ctx, token, record()))

		got, err := s.Take(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, record(), *got)
		assert.True(t, got.Complete())

		_, err = s.Take(ctx, token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("put after take restores", func(t *testing.T) {
		token := NewToken()
		require.NoError(t, s.Put(ctx, token, record()))
		rec, err := s.Take(ctx, token)
		require.NoError(t, err)
		require.NoError(t, s.Put(ctx, token, *rec))

		_, err = s.Take(ctx, token)
		assert.NoError(t, err)
	})
}

func TestSQLStore(t *testing.T) {
	storeContract(t, NewSQLStore(dbtest.New(t), 0))
}

func TestRedisStore(t *testing.T) {
	s, _ := newRedisStore(t, 0)
	storeContract(t, s)
}

func TestSQLStore_Expiry(t *testing.T) {
	db := dbtest.New(t)
	s := NewSQLStore(db, time.Hour)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "t1", record()))
	now = now.Add(2 * time.Hour)

	_, err := s.Take(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.Equal(t, 0, dbtest.Count(t, db, "pending_purchase"))
}

func TestRedisStore_Expiry(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "t1", record()))
	mr.FastForward(2 * time.Minute)

	_, err := s.Take(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestNewToken_Unique(t *testing.T) {
	assert.NotEqual(t, NewToken(), NewToken())
}
