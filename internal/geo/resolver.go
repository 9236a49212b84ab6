// Package geo resolves approximate visitor locations. Resolution never
// fails: every problem degrades to an empty location.
package geo

import (
	"context"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/logger"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/metrics"
	"github.com/IgorGrieder/clicktrack/internal/processing/visitor"
	"go.uber.org/zap"
)

const DefaultTimeout = 2 * time.Second

type Resolver struct {
	providers []Provider
	cache     *Cache
	timeout   time.Duration
	cacheKey  func(ip string) string
	log       *zap.Logger
}

type ResolverOptions struct {
	Timeout time.Duration
	// Cache is optional.
	Cache *Cache
	// CacheKey maps an IP to its cache key, normally a salted hash.
	CacheKey func(ip string) string
}

func NewResolver(providers []Provider, opts ResolverOptions) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheKey == nil {
		opts.CacheKey = visitor.NewFingerprinter("", nil).HashIP
	}
	return &Resolver{
		providers: providers,
		cache:     opts.Cache,
		timeout:   opts.Timeout,
		cacheKey:  opts.CacheKey,
		log:       logger.Named("geo"),
	}
}

// Resolve prefers edge-provided headers, skips non-public addresses and
// otherwise asks each provider in turn until one answers, all within the
// resolver timeout.
func (r *Resolver) Resolve(ctx context.Context, hint visitor.GeoHint, ip string) domain.GeoLocation {
	if !hint.IsEmpty() {
		metrics.GeoLookup(metrics.GeoSourceHeaders, metrics.GeoResultHit)
		return domain.GeoLocation{
			Country: hint.Country,
			City:    hint.City,
			Region:  hint.Region,
		}
	}

	if !IsPublicIP(ip) {
		metrics.GeoLookup(metrics.GeoSourcePrivate, metrics.GeoResultEmpty)
		return domain.GeoLocation{}
	}

	key := r.cacheKey(ip)
	if r.cache != nil {
		if loc, ok := r.cache.Get(key); ok {
			metrics.GeoLookup(metrics.GeoSourceCache, metrics.GeoResultHit)
			return loc
		}
	}

	if len(r.providers) == 0 {
		return domain.GeoLocation{}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	for _, p := range r.providers {
		loc, err := p.Lookup(ctx, ip)
		if err != nil {
			metrics.GeoLookup(metrics.GeoSourceProvider, metrics.GeoResultError)
			r.log.Warn("geo lookup failed",
				zap.String("provider", p.Name()),
				zap.String("ip_hash", key),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if loc.IsEmpty() {
			metrics.GeoLookup(metrics.GeoSourceProvider, metrics.GeoResultEmpty)
			continue
		}

		metrics.GeoLookup(metrics.GeoSourceProvider, metrics.GeoResultHit)
		if r.cache != nil {
			r.cache.Set(key, loc)
		}
		return loc
	}

	return domain.GeoLocation{}
}
