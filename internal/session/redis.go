package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petroslamb/movierama/internal/repository"
)

const redisKeyPrefix = "movierama:session:"

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*repository.SessionsRepository)(nil)
)

// RedisStore keeps sessions in Redis with a per-key expiry.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to the Redis instance at url and pings it.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStoreWithClient(rdb), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, redisKeyPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, token string) (int64, bool, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis get session: %w", err)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt session value %q: %w", raw, err)
	}
	return userID, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, redisKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
