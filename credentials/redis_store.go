package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "mediascan:credentials:"

// RedisStoreConfig holds connection settings for the Redis credential store.
type RedisStoreConfig struct {
	Addr     string
	Password string
	DB       int
	Slot     string
}

// RedisStore keeps the slot under a single Redis key. Unlike a cache, errors
// are surfaced: a missing Redis is an unavailable store, not an empty one.
type RedisStore struct {
	client *redis.Client
	key    string
}

var (
	_ Store  = (*RedisStore)(nil)
	_ Closer = (*RedisStore)(nil)
)

func NewRedisStore(cfg RedisStoreConfig) *RedisStore {
	return NewRedisStoreFromClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), cfg.Slot)
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, slot string) *RedisStore {
	return &RedisStore{client: client, key: redisKeyPrefix + slot}
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
