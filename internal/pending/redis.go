package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"medstock/m/domain"
)

const keyPrefix = "pending:"

// RedisStore keeps records in Redis with an optional expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store; ttl of zero means records never expire.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, token string, rec domain.PendingPurchase) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+token, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store pending purchase: %w", err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, token string) (*domain.PendingPurchase, error) {
	raw, err := s.client.GetDel(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("take pending purchase: %w", err)
	}
	var rec domain.PendingPurchase
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode pending purchase: %w", err)
	}
	return &rec, nil
}
