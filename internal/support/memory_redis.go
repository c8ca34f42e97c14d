package support

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisMemory struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Memory = (*RedisMemory)(nil)

// NewRedisMemory connects to redisURL and checks the connection.
func NewRedisMemory(ctx context.Context, redisURL string, ttl time.Duration) (*RedisMemory, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &RedisMemory{client: rdb, ttl: ttl}, nil
}

func redisMemoryKey(userID string) string {
	return "safefeed/support/memory/" + userID
}

func (r *RedisMemory) Get(ctx context.Context, userID string) (UserMemory, error) {
	raw, err := r.client.Get(ctx, redisMemoryKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return UserMemory{}, nil
	}
	if err != nil {
		return UserMemory{}, err
	}
	var m UserMemory
	if err := json.Unmarshal(raw, &m); err != nil {
		return UserMemory{}, err
	}
	return m, nil
}

func (r *RedisMemory) Put(ctx context.Context, userID string, m UserMemory) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisMemoryKey(userID), raw, r.ttl).Err()
}

func (r *RedisMemory) Close() error {
	return r.client.Close()
}
