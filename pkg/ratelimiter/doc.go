// Package ratelimiter throttles requests with a token bucket.
//
// A Bucket holds Capacity tokens and gains RefillRate tokens every
// RefillInterval. Each request consumes one token; a request that drives the
// count below zero is denied. State lives in a Store: MemoryStore for a
// single process, RedisStore when replicas must share limits.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       5,
//		RefillRate:     1,
//		RefillInterval: 10 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//
//	r.With(ratelimiter.Middleware(limiter, ratelimiter.ByRemoteAddr)).Post("/login", login)
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset on every response and answers 429 with Retry-After once
// the bucket is empty.
package ratelimiter
