package http

import (
	"net/http"
	"strings"

	"github.com/IgorGrieder/clicktrack/internal/config"
	"github.com/IgorGrieder/clicktrack/internal/constants"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/clicktrack/internal/transport/http/middleware"
	"github.com/IgorGrieder/clicktrack/pkg/httputils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var spanNames = map[string]string{
	"GET /health":                  "health",
	"GET /metrics":                 "metrics",
	"POST /track":                  "clicks.track",
	"POST /api/links":              "links.create",
	"GET /api/links/{code}":        "links.get",
	"PATCH /api/links/{code}":      "links.update",
	"GET /analytics/{code}":        "analytics.get",
	"GET /analytics/{code}/export": "analytics.export",
	"GET /{code}":                  "links.redirect",
}

// Limiters are the per-route request limits. /track and the redirect are
// limited inside the tracking service.
type Limiters struct {
	Create    middleware.Limiter
	Analytics middleware.Limiter
	Export    middleware.Limiter
}

type RouterDeps struct {
	Tracker      Tracker
	Links        LinkService
	Analytics    AnalyticsService
	Limiters     Limiters
	HealthChecks map[string]HealthCheck
}

type RouterOptions struct {
	EnableCORS    bool
	EnableLogging bool
	EnableMetrics bool
}

func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		EnableCORS:    true,
		EnableLogging: true,
		EnableMetrics: true,
	}
}

func NewRouter(cfg *config.Config, deps RouterDeps) http.Handler {
	return NewRouterWithOptions(cfg, deps, DefaultRouterOptions())
}

func NewRouterWithOptions(cfg *config.Config, deps RouterDeps, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	healthHandler := NewHealthHandler(cfg.App.Version, deps.HealthChecks)
	trackHandler := NewTrackHandler(deps.Tracker)
	linksHandler := NewLinksHandler(deps.Links, deps.Tracker, LinksHandlerOptions{
		BaseURL:        cfg.Shortener.BaseURL,
		RedirectStatus: cfg.Shortener.RedirectStatus,
	})
	analyticsHandler := NewAnalyticsHandler(deps.Analytics)

	auth := middleware.Auth(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	guarded := func(h http.HandlerFunc, limiter middleware.Limiter) http.Handler {
		mws := make([]func(http.Handler) http.Handler, 0, 2)
		if limiter != nil {
			mws = append(mws, middleware.RateLimit(limiter))
		}
		mws = append(mws, auth)
		return middleware.Chain(h, mws...)
	}

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", healthHandler.Metrics())

	mux.HandleFunc("POST /track", trackHandler.Track)

	mux.Handle("POST /api/links", guarded(linksHandler.Create, deps.Limiters.Create))
	mux.Handle("GET /api/links/{code}", guarded(linksHandler.Get, deps.Limiters.Analytics))
	mux.Handle("PATCH /api/links/{code}", guarded(linksHandler.Update, deps.Limiters.Create))

	mux.Handle("GET /analytics/{code}", guarded(analyticsHandler.Get, deps.Limiters.Analytics))
	mux.Handle("GET /analytics/{code}/export", guarded(analyticsHandler.Export, deps.Limiters.Export))

	mux.HandleFunc("GET /{code}", linksHandler.Redirect)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httputils.WriteAPIError(w, r, constants.ErrRouteNotFound)
	})

	var innerHandler http.Handler = mux
	if opts.EnableCORS {
		innerHandler = middleware.CORS(cfg.Server.CORSOrigins)(innerHandler)
	}
	if opts.EnableLogging {
		innerHandler = middleware.LoggingMiddleware(innerHandler)
	}
	if opts.EnableMetrics {
		innerHandler = middleware.MetricsMiddleware(innerHandler)
	}

	otelOptions := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			key := r.Method + " " + r.Pattern
			if name, ok := spanNames[key]; ok {
				return name
			}
			if r.Pattern != "" {
				return r.Pattern
			}
			path := strings.TrimSpace(r.URL.Path)
			if path == "" {
				path = "/"
			}
			return path
		}),
	}

	if telemetry.TracerProvider != nil {
		otelOptions = append(otelOptions, otelhttp.WithTracerProvider(telemetry.TracerProvider))
	}

	return otelhttp.NewHandler(innerHandler, cfg.App.Name, otelOptions...)
}
