package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Close() error
}

// New builds the cache selected by cfg.Driver.
func New(cfg Config) (Service, error) {
	mem := []MemoryOption{WithMemoryMaxSize(cfg.MemoryMaxSize)}
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryCache(mem...), nil
	case DriverRedis, DriverLayered:
		rc, err := NewRedisCache(
			WithRedisHost(cfg.Host),
			WithRedisPort(cfg.Port),
			WithRedisPassword(cfg.Password),
			WithRedisDB(cfg.DB),
			WithRedisPrefix(cfg.Prefix),
		)
		if err != nil {
			return nil, err
		}
		if cfg.Driver == DriverRedis {
			return rc, nil
		}
		return NewLayeredCache(rc, WithLayeredMemorySize(cfg.MemoryMaxSize), WithLayeredMemoryTTL(cfg.MemoryTTL)), nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}

var flights singleflight.Group

// Remember returns the cached value under key or calls load once per key across
// concurrent callers and stores the result. Cache failures fall through to load.
func Remember[T any](ctx context.Context, c Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var out T
	if c != nil {
		if err := c.Get(ctx, key, &out); err == nil {
			return out, nil
		}
	}

	v, err, _ := flights.Do(key, func() (interface{}, error) {
		if c != nil {
			var cached T
			if err := c.Get(ctx, key, &cached); err == nil {
				return cached, nil
			}
		}
		val, err := load(ctx)
		if err != nil {
			return val, err
		}
		if c != nil {
			_ = c.Set(ctx, key, val, ttl)
		}
		return val, nil
	})
	if err != nil {
		return out, err
	}
	return v.(T), nil
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(value)
	}
}

func decode(data []byte, dest interface{}) error {
	switch d := dest.(type) {
	case *string:
		*d = string(data)
		return nil
	case *[]byte:
		*d = append((*d)[:0], data...)
		return nil
	default:
		return json.Unmarshal(data, dest)
	}
}
