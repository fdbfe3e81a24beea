package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// NewRedisClientWithCleanup returns a new redis client and in-memory server.
// It registers a cleanup of redis data after each test.
func NewRedisClientWithCleanup(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	rsClient := redis.NewClient(&redis.Options{
		Addr: server.Addr(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rsClient.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	return rsClient, server
}

// RandomNamespace returns a random namespace fragment for test data isolation.
func RandomNamespace() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
