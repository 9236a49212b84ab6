package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Shortener ShortenerConfig
	RateLimit RateLimitConfig
	Geo       GeoConfig
	Privacy   PrivacyConfig
	Auth      AuthConfig
	Kafka     KafkaConfig
	OTel      OTelConfig
}

type AppConfig struct {
	Name       string
	Version    string
	Env        string
	LogLevel   string
	InstanceID string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

type StorageConfig struct {
	Backend string // postgres, mongo or memory
}

type PostgresConfig struct {
	DSN      string
	MaxConns int32
	Migrate  bool
}

type MongoDBConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type ShortenerConfig struct {
	BaseURL        string
	SlugLength     int
	RedirectStatus int // 301 or 302
}

type LimitConfig struct {
	Limit  int
	Window time.Duration
}

type RateLimitConfig struct {
	Backend       string // memory or redis
	Track         LimitConfig
	Create        LimitConfig
	Analytics     LimitConfig
	Export        LimitConfig
	SweepInterval time.Duration
}

type GeoConfig struct {
	Enabled          bool
	Timeout          time.Duration
	Providers        []string
	AllowInsecure    bool
	CacheSize        int64
	CacheTTL         time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

type PrivacyConfig struct {
	Salt string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

type OTelConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	postgresDSN := GetEnv("DATABASE_URL", "")
	if postgresDSN == "" {
		postgresDSN = DefaultPostgresDSN()
	}

	cfg := &Config{
		App: AppConfig{
			Name:       GetEnv("APP_NAME", "clicktrack"),
			Version:    GetEnv("APP_VERSION", "0.1.0"),
			Env:        GetEnv("APP_ENV", "development"),
			LogLevel:   GetEnv("LOG_LEVEL", "info"),
			InstanceID: GetEnv("INSTANCE_ID", DefaultInstanceID("clicktrack")),
		},
		Server: ServerConfig{
			Port:            GetEnv("APP_PORT", "8080"),
			Host:            GetEnv("APP_HOST", "localhost"),
			ReadTimeout:     GetEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    GetEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: GetEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     GetEnvSlice("CORS_ORIGINS", []string{"*"}),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(GetEnv("STORAGE_BACKEND", BackendPostgres)),
		},
		Postgres: PostgresConfig{
			DSN:      postgresDSN,
			MaxConns: int32(GetEnvInt("DB_MAX_CONNS", 10)),
			Migrate:  GetEnvBool("DB_MIGRATE", true),
		},
		MongoDB: MongoDBConfig{
			URI:      GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: GetEnv("MONGODB_DATABASE", "clicktrack"),
		},
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
			PoolSize: GetEnvInt("REDIS_POOL_SIZE", 10),
		},
		Shortener: ShortenerConfig{
			BaseURL:        strings.TrimRight(GetEnv("SHORTENER_BASE_URL", "http://localhost:8080"), "/"),
			SlugLength:     GetEnvInt("SLUG_LENGTH", 6),
			RedirectStatus: GetEnvInt("REDIRECT_STATUS", 302),
		},
		RateLimit: RateLimitConfig{
			Backend: strings.ToLower(GetEnv("RATE_LIMIT_BACKEND", BackendMemory)),
			Track: LimitConfig{
				Limit:  GetEnvInt("RATE_LIMIT_TRACK", 100),
				Window: GetEnvDuration("RATE_LIMIT_TRACK_WINDOW", time.Minute),
			},
			Create: LimitConfig{
				Limit:  GetEnvInt("RATE_LIMIT_CREATE", 10),
				Window: GetEnvDuration("RATE_LIMIT_CREATE_WINDOW", time.Minute),
			},
			Analytics: LimitConfig{
				Limit:  GetEnvInt("RATE_LIMIT_ANALYTICS", 30),
				Window: GetEnvDuration("RATE_LIMIT_ANALYTICS_WINDOW", time.Minute),
			},
			Export: LimitConfig{
				Limit:  GetEnvInt("RATE_LIMIT_EXPORT", 5),
				Window: GetEnvDuration("RATE_LIMIT_EXPORT_WINDOW", time.Minute),
			},
			SweepInterval: GetEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", time.Minute),
		},
		Geo: GeoConfig{
			Enabled:          GetEnvBool("GEO_ENABLED", true),
			Timeout:          GetEnvDuration("GEO_TIMEOUT", 2*time.Second),
			Providers:        GetEnvSlice("GEO_PROVIDERS", []string{"https://ipapi.co", "https://ipwho.is"}),
			AllowInsecure:    GetEnvBool("GEO_ALLOW_INSECURE", false),
			CacheSize:        GetEnvInt64("GEO_CACHE_SIZE", 10000),
			CacheTTL:         GetEnvDuration("GEO_CACHE_TTL", time.Hour),
			BreakerThreshold: GetEnvInt("GEO_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  GetEnvDuration("GEO_BREAKER_COOLDOWN", 30*time.Second),
		},
		Privacy: PrivacyConfig{
			Salt: GetEnv("PRIVACY_SALT", ""),
		},
		Auth: AuthConfig{
			JWTSecret: GetEnv("JWT_SECRET", ""),
			Issuer:    GetEnv("JWT_ISSUER", ""),
		},
		Kafka: KafkaConfig{
			Enabled:      GetEnvBool("KAFKA_ENABLED", false),
			Brokers:      GetEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:        GetEnv("KAFKA_TOPIC", "clicks.recorded"),
			WriteTimeout: GetEnvDuration("KAFKA_WRITE_TIMEOUT", 2*time.Second),
		},
		OTel: OTelConfig{
			Enabled:  GetEnvBool("OTEL_ENABLED", false),
			Endpoint: GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Shortener.RedirectStatus != 301 && c.Shortener.RedirectStatus != 302 {
		errs = append(errs, fmt.Errorf("REDIRECT_STATUS must be 301 or 302 (got %d)", c.Shortener.RedirectStatus))
	}
	if c.Shortener.SlugLength < 4 || c.Shortener.SlugLength > 32 {
		errs = append(errs, fmt.Errorf("SLUG_LENGTH must be between 4 and 32 (got %d)", c.Shortener.SlugLength))
	}

	switch c.Storage.Backend {
	case BackendPostgres, BackendMongo, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be postgres, mongo or memory (got %q)", c.Storage.Backend))
	}
	switch c.RateLimit.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be memory or redis (got %q)", c.RateLimit.Backend))
	}

	limits := map[string]LimitConfig{
		"TRACK":     c.RateLimit.Track,
		"CREATE":    c.RateLimit.Create,
		"ANALYTICS": c.RateLimit.Analytics,
		"EXPORT":    c.RateLimit.Export,
	}
	for _, name := range []string{"TRACK", "CREATE", "ANALYTICS", "EXPORT"} {
		l := limits[name]
		if l.Limit <= 0 || l.Window <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_%s and its window must be positive", name))
		}
	}

	if c.Geo.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("GEO_TIMEOUT must be positive (got %s)", c.Geo.Timeout))
	}
	for _, provider := range c.Geo.Providers {
		u, err := url.Parse(provider)
		if err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("GEO_PROVIDERS entry %q is not a URL", provider))
			continue
		}
		switch u.Scheme {
		case "https":
		case "http":
			if !c.Geo.AllowInsecure {
				errs = append(errs, fmt.Errorf("GEO_PROVIDERS entry %q is plaintext; set GEO_ALLOW_INSECURE=true to use it", provider))
			}
		default:
			errs = append(errs, fmt.Errorf("GEO_PROVIDERS entry %q must use http or https", provider))
		}
	}

	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		errs = append(errs, errors.New("KAFKA_BROKERS and KAFKA_TOPIC are required when KAFKA_ENABLED=true"))
	}

	return errors.Join(errs...)
}
