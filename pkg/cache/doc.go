// Package cache provides an optional Redis-backed cache of raw Narou API pages.
//
// Only successful (200 OK) page bodies are cached, keyed by endpoint path and
// the full query string, so a cached page is byte-for-byte what the API sent.
// Failed pages are never cached and are fetched again on the next run.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Endpoint:    "/novelapi/api/",
//		QueryParams: url.Values{"st": []string{"1"}, "lim": []string{"500"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then:
//		_ = manager.Set(ctx, key, cache.NewEntry(body, time.Hour))
//	}
//
// # Metrics
//
//   - narou_cache_hits_total - Cache hits
//   - narou_cache_misses_total - Cache misses
//   - narou_cache_errors_total{operation} - Cache operation errors
package cache
