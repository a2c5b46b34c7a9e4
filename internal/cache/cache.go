package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/config"
	"github.com/Additional-Code/logistics/internal/logger"
)

// Store represents a generic cache backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ErrCacheMiss indicates the key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

// Module provides the cache store to the Fx graph.
var Module = fx.Provide(NewStore)

// NewStore initialises the configured cache store (redis or noop).
func NewStore(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Store, error) {
	log = logger.Component(log, "cache")
	switch cfg.Cache.Driver {
	case "noop":
		log.Info("cache disabled; using noop store")
		return NewNoop(), nil
	case "redis":
		store := newRedisStore(cfg.Cache)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				// An unreachable redis degrades to cache misses; it never blocks startup.
				if err := store.client.Ping(ctx).Err(); err != nil {
					log.Warn("redis unreachable; listings will hit the database", zap.String("addr", cfg.Cache.Redis.Addr), zap.Error(err))
					return nil
				}
				log.Info("redis cache connected", zap.String("addr", cfg.Cache.Redis.Addr))
				return nil
			},
			OnStop: func(context.Context) error {
				return store.client.Close()
			},
		})
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

// NewNoop returns a store that never holds anything.
func NewNoop() Store {
	return noopStore{}
}

type noopStore struct{}

func (noopStore) Get(context.Context, string) ([]byte, error)              { return nil, ErrCacheMiss }
func (noopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (noopStore) Delete(context.Context, string) error                     { return nil }

// multiDeleter is implemented by stores that drop several keys in one round trip.
type multiDeleter interface {
	DeleteMany(ctx context.Context, keys ...string) error
}

type redisStore struct {
	client     *goredis.Client
	defaultTTL time.Duration
}

func newRedisStore(cfg config.Cache) *redisStore {
	return &redisStore{
		client: goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}),
		defaultTTL: cfg.DefaultTTL,
	}
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrCacheMiss
	}
	res, err := s.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, err
	}
	return res, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.DeleteMany(ctx, key)
}

func (s *redisStore) DeleteMany(ctx context.Context, keys ...string) error {
	nonEmpty := keys[:0:0]
	for _, k := range keys {
		if k != "" {
			nonEmpty = append(nonEmpty, k)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}
	return s.client.Del(ctx, nonEmpty...).Err()
}

// GetJSON loads key and decodes it into dest. A missing key yields ErrCacheMiss.
func GetJSON(ctx context.Context, store Store, key string, dest any) error {
	if store == nil {
		return ErrCacheMiss
	}
	raw, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, store Store, key string, v any, ttl time.Duration) error {
	if store == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, key, raw, ttl)
}

// DeleteAll removes every key, returning the joined failures.
func DeleteAll(ctx context.Context, store Store, keys ...string) error {
	if store == nil {
		return nil
	}
	if md, ok := store.(multiDeleter); ok {
		return md.DeleteMany(ctx, keys...)
	}
	var errs error
	for _, key := range keys {
		errs = errors.Join(errs, store.Delete(ctx, key))
	}
	return errs
}
