package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix      = "launcher-auth"
	defaultRedisTimeout = 5 * time.Second
)

var errRedisUnavailable = errors.New("accounts redis unavailable")

// RedisPersister stores the snapshot as JSON under one Redis key, for launchers that
// share accounts across machines.
type RedisPersister struct {
	redis   *redis.Client
	key     string
	timeout time.Duration
}

// NewRedisPersister creates a persister keyed by profile, e.g. "launcher-auth:default:accounts"
func NewRedisPersister(client *redis.Client, profile string) *RedisPersister {
	if profile == "" {
		profile = "default"
	}
	return &RedisPersister{
		redis:   client,
		key:     redisKeyPrefix + ":" + profile + ":" + snapshotKey,
		timeout: defaultRedisTimeout,
	}
}

// Key returns the Redis key the snapshot lives under
func (p *RedisPersister) Key() string { return p.key }

// Save implements Persister
func (p *RedisPersister) Save(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.redis.Set(ctx, p.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return nil
}

// Load implements Persister
func (p *RedisPersister) Load() (Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	raw, err := p.redis.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode accounts from redis: %w", err)
	}
	return snap, nil
}
