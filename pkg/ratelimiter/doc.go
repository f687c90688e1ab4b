// Package ratelimiter implements a token bucket limiter and an HTTP
// middleware for it.
//
// The public entitlement lookup and the checkout endpoint accept any caller,
// so they are throttled per client address:
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       30,
//		RefillRate:     1,
//		RefillInterval: 2 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//	r.With(ratelimiter.Middleware(bucket, byIP)).Get("/check-subscription", h)
//
// Config is loaded with a prefix, e.g. RATELIMIT_CAPACITY. A zero capacity
// disables limiting.
package ratelimiter
