package revocation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrUnavailable wraps every failure to reach the backing store.
var ErrUnavailable = errors.New("token revocation store unavailable")

const (
	keyPrefix   = "revoked:"
	marker      = "_"
	DefaultTTL  = time.Hour
	dialTimeout = 5 * time.Second
)

type Store interface {
	Revoke(ctx context.Context, tokenID string) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c RedisConfig) ToRedisOptions() *redis.Options {
	dial := c.DialTimeout
	if dial <= 0 {
		dial = dialTimeout
	}

	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  dial,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		// -1 disables retries; a store failure must surface on the request that hit it.
		MaxRetries: -1,
	}
}

// NewRedisClient connects and pings once so a misconfigured store fails startup.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts := cfg.ToRedisOptions()
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return client, nil
}

type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) TTL() time.Duration {
	return s.ttl
}

// Revoke is idempotent; revoking twice refreshes the expiry.
func (s *RedisStore) Revoke(ctx context.Context, tokenID string) error {
	if strings.TrimSpace(tokenID) == "" {
		return errors.New("token id is required")
	}

	if err := s.client.Set(ctx, keyPrefix+tokenID, marker, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: revoke %s: %v", ErrUnavailable, tokenID, err)
	}
	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("%w: lookup %s: %v", ErrUnavailable, tokenID, err)
	}
	return n > 0, nil
}

// Ping reports whether the store is reachable, for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
