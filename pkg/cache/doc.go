// Package cache provides Redis-backed caching for catalog page responses.
//
// The cache manager honors server freshness headers and supports
// conditional revalidation:
//
//   - Expires headers drive the entry TTL (DefaultTTL fallback)
//   - ETag support for conditional requests (If-None-Match)
//   - Deterministic cache key generation per (query, page, page size)
//   - Prometheus metrics for observability
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{Query: "shoes", Page: 3, PerPage: 12}
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the catalog service
//	}
//
// A fresh response is stored via ResponseEntry:
//
//	entry := cache.ResponseEntry(resp, body)
//	if err := manager.Set(ctx, key, entry); err != nil {
//		return err
//	}
package cache
