package testutil

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"go-todo-api/internal/revocation"
)

// NewRevocationStore returns a Redis-backed store on an in-process
// miniredis server. Close the server to simulate an outage.
func NewRevocationStore(t *testing.T, ttl time.Duration) (*revocation.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(revocation.RedisConfig{Addr: srv.Addr()}.ToRedisOptions())
	t.Cleanup(func() { _ = client.Close() })

	return revocation.NewRedisStore(client, ttl), srv
}
