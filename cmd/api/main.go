package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/config"
	"github.com/IgorGrieder/clicktrack/internal/geo"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/logger"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/clicktrack/internal/messaging/kafka"
	"github.com/IgorGrieder/clicktrack/internal/processing/analytics"
	"github.com/IgorGrieder/clicktrack/internal/processing/links"
	"github.com/IgorGrieder/clicktrack/internal/processing/tracking"
	"github.com/IgorGrieder/clicktrack/internal/processing/visitor"
	"github.com/IgorGrieder/clicktrack/internal/ratelimit"
	httpTransport "github.com/IgorGrieder/clicktrack/internal/transport/http"
	"github.com/IgorGrieder/clicktrack/pkg/httpclient"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.Env, cfg.App.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.String("instance_id", cfg.App.InstanceID),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var shutdownTracer func(context.Context) error
	if cfg.OTel.Enabled {
		shutdownTracer, err = telemetry.InitTracer(ctx, cfg.OTel.Endpoint, cfg.App.Name, cfg.App.Version, cfg.App.Env)
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			logger.Info("OpenTelemetry tracer initialized", zap.String("endpoint", cfg.OTel.Endpoint))
		}
	}

	repos, err := initStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer repos.close()

	limiterStore, limiterHealth, closeLimiter, err := initLimiterStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize rate limit store", zap.Error(err))
	}
	defer closeLimiter()

	healthChecks := map[string]httpTransport.HealthCheck{}
	for name, check := range repos.health {
		healthChecks[name] = check
	}
	if limiterHealth != nil {
		healthChecks["redis"] = limiterHealth
	}

	fingerprinter := visitor.NewFingerprinter(cfg.Privacy.Salt, nil)
	if cfg.Privacy.Salt == "" {
		logger.Warn("PRIVACY_SALT is empty; visitor hashes are unsalted")
	}

	resolver, closeGeo, err := initGeo(cfg, fingerprinter)
	if err != nil {
		logger.Fatal("Failed to initialize geo resolver", zap.Error(err))
	}
	defer closeGeo()

	trackDeps := tracking.Deps{
		URLs:          repos.urls,
		Clicks:        repos.clicks,
		Limiter:       mustLimiter(limiterStore, "track", cfg.RateLimit.Track),
		Geo:           resolver,
		Fingerprinter: fingerprinter,
	}
	if cfg.Kafka.Enabled {
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.WriteTimeout)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("failed to close kafka writer", zap.Error(err))
			}
		}()
		trackDeps.Publisher = publisher
	}

	router := httpTransport.NewRouter(cfg, httpTransport.RouterDeps{
		Tracker:   tracking.NewService(trackDeps),
		Links:     links.NewService(repos.urls, links.NewCryptoCodeGenerator(), cfg.Shortener.SlugLength),
		Analytics: analytics.NewService(repos.urls, repos.clicks),
		Limiters: httpTransport.Limiters{
			Create:    mustLimiter(limiterStore, "create", cfg.RateLimit.Create),
			Analytics: mustLimiter(limiterStore, "analytics", cfg.RateLimit.Analytics),
			Export:    mustLimiter(limiterStore, "export", cfg.RateLimit.Export),
		},
		HealthChecks: healthChecks,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", zap.Error(err))
		}
		if shutdownTracer != nil {
			_ = shutdownTracer(shutdownCtx)
		}
	}()

	logger.Info("Server starting",
		zap.String("port", cfg.Server.Port),
		zap.String("env", cfg.App.Env),
		zap.String("address", server.Addr),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("rate_limit_store", cfg.RateLimit.Backend),
		zap.Bool("kafka", cfg.Kafka.Enabled),
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func mustLimiter(store ratelimit.Store, prefix string, lc config.LimitConfig) *ratelimit.Limiter {
	l, err := ratelimit.New(store, ratelimit.Options{Limit: lc.Limit, Window: lc.Window, Prefix: prefix})
	if err != nil {
		logger.Fatal("Invalid rate limit", zap.String("limiter", prefix), zap.Error(err))
	}
	return l
}

// initGeo builds the resolver. With geo disabled it still honours the edge
// headers and never calls out.
func initGeo(cfg *config.Config, fp *visitor.Fingerprinter) (*geo.Resolver, func(), error) {
	opts := geo.ResolverOptions{
		Timeout:  cfg.Geo.Timeout,
		CacheKey: fp.HashIP,
	}
	if !cfg.Geo.Enabled {
		logger.Info("Geo lookups disabled; using edge headers only")
		return geo.NewResolver(nil, opts), func() {}, nil
	}

	newClient := func(name string) *httpclient.Client {
		return httpclient.NewClient(httpclient.Options{
			Name:        "geo-" + name,
			Timeout:     cfg.Geo.Timeout,
			MaxFailures: cfg.Geo.BreakerThreshold,
			OpenTimeout: cfg.Geo.BreakerCooldown,
		})
	}

	providers := make([]geo.Provider, 0, len(cfg.Geo.Providers))
	for _, raw := range cfg.Geo.Providers {
		p, err := geo.ProviderFromURL(raw, newClient)
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, p)
	}

	closeCache := func() {}
	if cfg.Geo.CacheSize > 0 {
		cache, err := geo.NewCache(cfg.Geo.CacheSize, cfg.Geo.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("geo cache: %w", err)
		}
		opts.Cache = cache
		closeCache = cache.Close
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	logger.Info("Geo resolver configured",
		zap.Strings("providers", names),
		zap.Duration("timeout", cfg.Geo.Timeout),
		zap.Int64("cache_size", cfg.Geo.CacheSize),
	)
	return geo.NewResolver(providers, opts), closeCache, nil
}
