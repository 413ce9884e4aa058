package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers keys for a while so repeated work can be skipped
type Deduper struct {
	rdb       *redis.Client
	keyPrefix string
}

// NewDeduper creates a Deduper storing markers under keyPrefix
func NewDeduper(rdb *redis.Client, keyPrefix string) *Deduper {
	return &Deduper{rdb: rdb, keyPrefix: keyPrefix}
}

// Claim returns true the first time key is seen within ttl
func (d *Deduper) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return d.rdb.SetNX(ctx, d.keyPrefix+key, time.Now().UTC().Unix(), ttl).Result()
}

// Release forgets key
func (d *Deduper) Release(ctx context.Context, key string) error {
	return d.rdb.Del(ctx, d.keyPrefix+key).Err()
}
