package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/processing/visitor"
	"github.com/IgorGrieder/clicktrack/internal/ratelimit"
	"github.com/IgorGrieder/clicktrack/pkg/httputils"
)

type Limiter interface {
	CheckFailOpen(ctx context.Context, identifier string) ratelimit.Result
}

// RateLimit applies a per-client-IP fixed window. Store failures let the
// request through.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return rateLimit(limiter, time.Now)
}

func rateLimit(limiter Limiter, now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := visitor.ClientIP(r.Header, r.RemoteAddr)
			res := limiter.CheckFailOpen(r.Context(), ip)

			WriteRateLimitHeaders(w, res)
			if !res.Success {
				httputils.WriteRateLimited(w, r, res.RetryAfter(now()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteRateLimitHeaders is a no-op for a zero result, which is what callers
// see when no limiter ran.
func WriteRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result) {
	if res.Limit <= 0 {
		return
	}
	httputils.WriteRateLimitHeaders(w, httputils.RateLimitInfo{
		Limit:     res.Limit,
		Remaining: res.Remaining,
		Reset:     res.ResetTime,
	})
}
