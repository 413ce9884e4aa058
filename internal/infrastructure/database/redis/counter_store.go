package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/forms-backend/internal/domain/sequence"
)

// CounterStore keeps one Redis integer per (prefix, year). INCR is atomic on
// the server; durability follows the server's persistence settings.
type CounterStore struct {
	rdb       *redis.Client
	keyPrefix string
}

// NewCounterStore creates a counter store using keys under keyPrefix
func NewCounterStore(rdb *redis.Client, keyPrefix string) *CounterStore {
	if keyPrefix == "" {
		keyPrefix = "seq"
	}
	return &CounterStore{rdb: rdb, keyPrefix: keyPrefix}
}

// CounterKey returns the Redis key for a counter
func CounterKey(keyPrefix string, key sequence.Key) string {
	return fmt.Sprintf("%s:%s:%d", keyPrefix, key.Prefix, key.Year)
}

// Increment implements sequence.CounterStore
func (s *CounterStore) Increment(ctx context.Context, key sequence.Key) (int64, error) {
	n, err := s.rdb.Incr(ctx, CounterKey(s.keyPrefix, key)).Result()
	if err != nil {
		if errors.Is(err, redis.ErrPoolTimeout) {
			return 0, fmt.Errorf("%w: %v", sequence.ErrConflict, err)
		}
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, err)
	}
	return n, nil
}
