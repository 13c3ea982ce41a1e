package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "session:"

// RedisStore keeps JSON-encoded sessions in redis so they survive restarts.
type RedisStore[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps client. A non-positive ttl stores keys without expiry.
func NewRedisStore[T any](client *goredis.Client, prefix string, ttl time.Duration) *RedisStore[T] {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisStore[T]{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore[T]) key(chatID int64) string {
	return s.prefix + strconv.FormatInt(chatID, 10)
}

// Load implements Store.
func (s *RedisStore[T]) Load(ctx context.Context, chatID int64) (T, bool, error) {
	var v T
	if s.client == nil {
		return v, false, errors.New("redis client is nil")
	}
	raw, err := s.client.Get(ctx, s.key(chatID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode session: %w", err)
	}
	return v, true, nil
}

// Save implements Store.
func (s *RedisStore[T]) Save(ctx context.Context, chatID int64, v T) error {
	if s.client == nil {
		return errors.New("redis client is nil")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(chatID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *RedisStore[T]) Clear(ctx context.Context, chatID int64) error {
	if s.client == nil {
		return errors.New("redis client is nil")
	}
	if err := s.client.Del(ctx, s.key(chatID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
