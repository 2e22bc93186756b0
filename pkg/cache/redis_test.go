package cache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client for testing.
// For integration tests see redis_integration_test.go, which uses
// testcontainers-go with a real Redis instance.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewRedisStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisStore should panic with nil redis client")
		}
	}()
	NewRedisStore(nil)
}

func TestRedisStore(t *testing.T) {
	client := setupTestRedis(t)
	store := &RedisStore{redis: client, key: RootKey}

	storeContract(t, store)
}

func TestRedisStore_NoExpiry(t *testing.T) {
	client := setupTestRedis(t)
	store := &RedisStore{redis: client, key: RootKey}
	ctx := context.Background()

	if err := store.Save(ctx, PersistedFields{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ttl, err := client.TTL(ctx, RootKey).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl != -1 {
		t.Errorf("Expected no expiry (-1), got %v", ttl)
	}
}
