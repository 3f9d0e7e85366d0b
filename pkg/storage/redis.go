package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/catalinamedinaleal/store/pkg/config"
)

// redisKey is the single key the cache envelope lives under.
const redisKey = "store:state:cache"

// Ensure RedisBackend implements Backend.
var _ Backend = (*RedisBackend)(nil)

// RedisBackend stores the blob as one redis value with a TTL, so stale
// envelopes also age out server-side.
type RedisBackend struct {
	log    logrus.FieldLogger
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBackend connects to redis and verifies the connection.
func NewRedisBackend(log logrus.FieldLogger, cfg *config.RedisConfig, ttl time.Duration) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisBackend{
		log:    log.WithField("component", "redis_backend"),
		client: client,
		ttl:    ttl,
	}, nil
}

// Load returns the saved blob, or ErrNotFound.
func (b *RedisBackend) Load(ctx context.Context) ([]byte, error) {
	data, err := b.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("loading cache from redis: %w", err)
	}

	return data, nil
}

// Save replaces the saved blob, refreshing its TTL.
func (b *RedisBackend) Save(ctx context.Context, data []byte) error {
	if err := b.client.Set(ctx, redisKey, data, b.ttl).Err(); err != nil {
		return fmt.Errorf("saving cache to redis: %w", err)
	}

	return nil
}

// Clear removes the saved blob.
func (b *RedisBackend) Clear(ctx context.Context) error {
	if err := b.client.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("clearing cache from redis: %w", err)
	}

	return nil
}

// Close closes the redis connection.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
