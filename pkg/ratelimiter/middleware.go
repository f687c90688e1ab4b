package ratelimiter

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/metrics"
)

// KeyFunc extracts the bucket key from a request. An empty key bypasses
// the limiter.
type KeyFunc func(r *http.Request) string

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareSettings)

type middlewareSettings struct {
	name    string
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// WithName labels rejections in logs and metrics.
func WithName(name string) MiddlewareOption {
	return func(s *middlewareSettings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets the logger used for store failures and rejections.
func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(s *middlewareSettings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics counts rejections.
func WithMetrics(m *metrics.Metrics) MiddlewareOption {
	return func(s *middlewareSettings) {
		s.metrics = m
	}
}

// Middleware rejects requests over the limit with 429 and a JSON body.
// Store failures are logged and the request is let through.
func Middleware(b *Bucket, key KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	s := &middlewareSettings{name: "default", log: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	log := s.log.With(logger.Component("ratelimiter"), slog.String("limiter", s.name))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := b.Allow(r.Context(), k)
			if err != nil {
				log.ErrorContext(r.Context(), "rate limit check failed", logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				s.metrics.RateLimited(s.name)
				log.DebugContext(r.Context(), "request rate limited")

				retry := int(res.RetryAfter(s.now()).Round(time.Second).Seconds())
				h.Set("Retry-After", strconv.Itoa(max(retry, 1)))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
