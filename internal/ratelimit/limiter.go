// Package ratelimit implements fixed-window request counting.
//
// The in-memory store is a best-effort, single-process guard: every replica
// keeps its own counters and a restart resets them. Use the Redis store when
// limits must hold across instances. Neither is a security boundary.
package ratelimit

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/infrastructure/logger"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

var ErrInvalidOptions = errors.New("ratelimit: limit and window must be positive")

// Store counts hits per key inside a fixed window. The first hit for a key
// (or the first after its window elapsed) opens a new window of the given
// length and returns count 1.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

type Options struct {
	Limit  int
	Window time.Duration
	Prefix string
}

type Result struct {
	Success   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// RetryAfter is the whole number of seconds until the window resets, at least 1.
func (r Result) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(r.ResetTime.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Limiter is one namespaced limit (click tracking, link creation, ...).
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func New(store Store, opts Options) (*Limiter, error) {
	if opts.Limit <= 0 || opts.Window <= 0 {
		return nil, ErrInvalidOptions
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &Limiter{
		store:  store,
		limit:  opts.Limit,
		window: opts.Window,
		prefix: prefix,
		now:    time.Now,
	}, nil
}

func (l *Limiter) Prefix() string { return l.prefix }

// Check records a request for identifier and reports whether it is allowed.
func (l *Limiter) Check(ctx context.Context, identifier string) (Result, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		identifier = "unknown"
	}

	count, resetAt, err := l.store.Hit(ctx, l.prefix+":"+identifier, l.window)
	if err != nil {
		return Result{}, err
	}

	if count > int64(l.limit) {
		return Result{
			Success:   false,
			Limit:     l.limit,
			Remaining: 0,
			ResetTime: resetAt,
		}, nil
	}

	return Result{
		Success:   true,
		Limit:     l.limit,
		Remaining: l.limit - int(count),
		ResetTime: resetAt,
	}, nil
}

// Allowed builds the result used when the store is unreachable and the
// caller decides to fail open.
func (l *Limiter) Allowed(now time.Time) Result {
	return Result{
		Success:   true,
		Limit:     l.limit,
		Remaining: l.limit,
		ResetTime: now.Add(l.window),
	}
}

// CheckFailOpen is Check for callers that prefer availability over strict
// limiting: a store error is logged and the request is allowed.
func (l *Limiter) CheckFailOpen(ctx context.Context, identifier string) Result {
	res, err := l.Check(ctx, identifier)
	if err != nil {
		logger.Warn("rate limit store unavailable, allowing request",
			zap.String("limiter", l.prefix),
			zap.Error(err),
		)
		return l.Allowed(l.now())
	}
	if !res.Success {
		metrics.RateLimited(l.prefix)
	}
	return res
}
