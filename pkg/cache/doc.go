// Package cache persists the allow-listed pagination fields across process
// restarts.
//
// Only the accumulated items, the next cursor and the last successful fetch
// time are stored, as one JSON document under a fixed root key. Status, error
// message and retry counters are transient and never persisted.
//
// # Backends
//
//   - RedisStore - go-redis/v9, value stored under RootKey without expiry
//   - SQLiteStore - single kv table, one row per root key
//   - MemoryStore - in-process, for tests and throwaway runs
//
// # Basic Usage
//
//	store, err := cache.Open(ctx, cache.Config{Backend: "redis", RedisAddr: "localhost:6379"})
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	fields, err := store.Load(ctx)
//	if errors.Is(err, cache.ErrNotFound) {
//		// Nothing persisted yet - start from the first page
//	}
//
// Loads and saves are best-effort from the controller's point of view: a
// failing store never changes in-memory pagination state.
//
// # Metrics
//
//   - breeds_store_operations_total{backend, operation, result}
//   - breeds_store_size_bytes{backend}
package cache
