package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mohammaddehghani/TelegBotCardNum/core/logger"

	goredis "github.com/redis/go-redis/v9"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ErrUnknownBackend is returned by New for an unsupported backend name.
var ErrUnknownBackend = errors.New("state: unknown backend")

// Store persists one session value per chat.
type Store[T any] interface {
	// Load returns the stored session and whether one existed.
	Load(ctx context.Context, chatID int64) (T, bool, error)
	Save(ctx context.Context, chatID int64, v T) error
	Clear(ctx context.Context, chatID int64) error
}

// Options selects and configures a Store backend.
type Options struct {
	Backend   string
	TTL       time.Duration
	RedisAddr string
	// Prefix namespaces redis keys.
	Prefix string
}

// New builds the store named by opts.Backend. An empty backend means memory.
// The returned closer releases backend resources and is never nil.
func New[T any](opts Options) (Store[T], func() error, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		logger.Info(context.Background(), logger.CompSession, "session.store",
			slog.String("backend", BackendMemory), slog.Duration("ttl", opts.TTL))
		return NewMemoryStore[T](opts.TTL), func() error { return nil }, nil
	case BackendRedis:
		if strings.TrimSpace(opts.RedisAddr) == "" {
			return nil, nil, errors.New("state: redis backend requires an address")
		}
		client := goredis.NewClient(&goredis.Options{Addr: opts.RedisAddr})
		logger.Info(context.Background(), logger.CompSession, "session.store",
			slog.String("backend", BackendRedis), slog.String("addr", opts.RedisAddr), slog.Duration("ttl", opts.TTL))
		return NewRedisStore[T](client, opts.Prefix, opts.TTL), client.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}
