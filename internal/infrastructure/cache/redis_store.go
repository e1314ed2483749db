package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lsfernandes92/user-service-challenge/internal/domain"
)

// DefaultRedisKey is where RedisStore keeps the snapshot.
const DefaultRedisKey = "userservice:listing:ids"

// RedisStore shares one snapshot between instances. Expiry is delegated to Redis (SET ... EX).
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore returns a store under key; empty key uses DefaultRedisKey.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Get(ctx context.Context) ([]domain.UserID, bool, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	ids := make([]domain.UserID, 0, len(raw))
	for _, r := range raw {
		id, err := domain.ParseUserID(r)
		if err != nil {
			return nil, false, fmt.Errorf("decode snapshot id %q: %w", r, err)
		}
		ids = append(ids, id)
	}
	return ids, true, nil
}

func (s *RedisStore) Set(ctx context.Context, ids []domain.UserID, ttl time.Duration) error {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

var _ SnapshotStore = (*RedisStore)(nil)
