package middleware

import (
	"net/http"

	"github.com/IgorGrieder/clicktrack/pkg/httputils"
	"github.com/rs/cors"
)

// CORS allows the configured origins. An empty list or "*" allows any
// origin; the tracking endpoint is called from third-party pages.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodOptions,
			http.MethodHead,
		},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			"Accept",
			"Origin",
			"X-Requested-With",
			httputils.CorrelationIDHeader,
			// OpenTelemetry headers
			"traceparent",
			"tracestate",
			"baggage",
		},
		ExposedHeaders: []string{
			httputils.CorrelationIDHeader,
			httputils.RateLimitLimitHeader,
			httputils.RateLimitRemainingHeader,
			httputils.RateLimitResetHeader,
			"Retry-After",
			"Content-Disposition",
		},
		AllowCredentials: true,
	}

	if allowsAny(origins) {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}

	return cors.New(opts).Handler
}

func allowsAny(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
