package main

import (
	"context"
	"fmt"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/config"
	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/db"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/logger"
	"github.com/IgorGrieder/clicktrack/internal/ratelimit"
	"github.com/IgorGrieder/clicktrack/internal/storage/memory"
	"github.com/IgorGrieder/clicktrack/internal/storage/mongo"
	postgresStorage "github.com/IgorGrieder/clicktrack/internal/storage/postgres"
	redisStorage "github.com/IgorGrieder/clicktrack/internal/storage/redis"
	httpTransport "github.com/IgorGrieder/clicktrack/internal/transport/http"
	"go.uber.org/zap"
)

// shortURLStore is what the link, tracking and analytics services need
// from link storage combined.
type shortURLStore interface {
	Insert(ctx context.Context, link *domain.ShortURL) error
	FindByCode(ctx context.Context, code string) (*domain.ShortURL, error)
	SetActive(ctx context.Context, id string, active bool) error
	IncrementCounters(ctx context.Context, shortURLID string, unique bool) error
}

type clickStore interface {
	Insert(ctx context.Context, event *domain.ClickEvent) error
	ExistsSince(ctx context.Context, shortURLID, fingerprint string, since time.Time) (bool, error)
	ListSince(ctx context.Context, shortURLID string, since time.Time) ([]domain.ClickEvent, error)
}

type repositories struct {
	urls   shortURLStore
	clicks clickStore
	health map[string]httpTransport.HealthCheck
	close  func()
}

func initStorage(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		return initPostgres(ctx, cfg)
	case config.BackendMongo:
		return initMongo(ctx, cfg)
	case config.BackendMemory:
		store := memory.NewStore()
		logger.Warn("Storage backend selected", zap.String("backend", "memory"), zap.String("note", "data is lost on restart"))
		return &repositories{urls: store, clicks: store.Clicks(), close: func() {}}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func initPostgres(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.Postgres.Migrate {
		if err := postgresStorage.RunMigrations(cfg.Postgres.DSN); err != nil {
			return nil, err
		}
	}

	pgConn, err := db.ConnectPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	urls, err := postgresStorage.NewShortURLRepository(pgConn)
	if err != nil {
		pgConn.Close()
		return nil, fmt.Errorf("init postgres short url repository: %w", err)
	}
	clicks, err := postgresStorage.NewClickEventRepository(pgConn)
	if err != nil {
		pgConn.Close()
		return nil, fmt.Errorf("init postgres click repository: %w", err)
	}

	logger.Info("Storage backend selected", zap.String("backend", "postgres"))
	return &repositories{
		urls:   urls,
		clicks: clicks,
		health: map[string]httpTransport.HealthCheck{"postgres": pgConn.Ping},
		close:  pgConn.Close,
	}, nil
}

func initMongo(ctx context.Context, cfg *config.Config) (*repositories, error) {
	mongoConn, err := db.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	closeMongo := func() { _ = mongoConn.Disconnect() }

	urls, err := mongo.NewShortURLRepository(ctx, mongoConn)
	if err != nil {
		closeMongo()
		return nil, fmt.Errorf("init mongo short url repository: %w", err)
	}
	clicks, err := mongo.NewClickEventRepository(ctx, mongoConn)
	if err != nil {
		closeMongo()
		return nil, fmt.Errorf("init mongo click repository: %w", err)
	}

	logger.Info("Storage backend selected", zap.String("backend", "mongo"))
	return &repositories{
		urls:   urls,
		clicks: clicks,
		health: map[string]httpTransport.HealthCheck{"mongo": mongoConn.Ping},
		close:  closeMongo,
	}, nil
}

// initLimiterStore returns the shared counter store for every limiter.
func initLimiterStore(cfg *config.Config) (ratelimit.Store, httpTransport.HealthCheck, func(), error) {
	if cfg.RateLimit.Backend != config.BackendRedis {
		logger.Info("Rate limit store selected", zap.String("backend", "memory"))
		return ratelimit.NewMemoryStore(ratelimit.WithSweepInterval(cfg.RateLimit.SweepInterval)), nil, func() {}, nil
	}

	client, err := redisStorage.New(redisStorage.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	logger.Info("Rate limit store selected", zap.String("backend", "redis"), zap.String("addr", cfg.Redis.Addr))
	return redisStorage.NewWindowStore(client), client.Ping, func() { _ = client.Close() }, nil
}
