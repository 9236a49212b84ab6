package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Storage:   StorageConfig{Backend: BackendMemory},
		Shortener: ShortenerConfig{SlugLength: 6, RedirectStatus: 302},
		RateLimit: RateLimitConfig{
			Backend:   BackendMemory,
			Track:     LimitConfig{Limit: 100, Window: time.Minute},
			Create:    LimitConfig{Limit: 10, Window: time.Minute},
			Analytics: LimitConfig{Limit: 30, Window: time.Minute},
			Export:    LimitConfig{Limit: 5, Window: time.Minute},
		},
		Geo: GeoConfig{
			Timeout:   2 * time.Second,
			Providers: []string{"https://ipapi.co"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "redirect status",
			mutate:  func(c *Config) { c.Shortener.RedirectStatus = 307 },
			wantErr: "REDIRECT_STATUS",
		},
		{
			name:    "slug too short",
			mutate:  func(c *Config) { c.Shortener.SlugLength = 3 },
			wantErr: "SLUG_LENGTH",
		},
		{
			name:    "unknown storage backend",
			mutate:  func(c *Config) { c.Storage.Backend = "sqlite" },
			wantErr: "STORAGE_BACKEND",
		},
		{
			name:    "zero export limit",
			mutate:  func(c *Config) { c.RateLimit.Export.Limit = 0 },
			wantErr: "RATE_LIMIT_EXPORT",
		},
		{
			name:    "zero geo timeout",
			mutate:  func(c *Config) { c.Geo.Timeout = 0 },
			wantErr: "GEO_TIMEOUT",
		},
		{
			name:    "plaintext provider without opt-in",
			mutate:  func(c *Config) { c.Geo.Providers = []string{"http://ip-api.com"} },
			wantErr: "GEO_ALLOW_INSECURE",
		},
		{
			name: "plaintext provider with opt-in",
			mutate: func(c *Config) {
				c.Geo.Providers = []string{"http://ip-api.com"}
				c.Geo.AllowInsecure = true
			},
		},
		{
			name: "kafka without topic",
			mutate: func(c *Config) {
				c.Kafka.Enabled = true
				c.Kafka.Brokers = []string{"localhost:9092"}
			},
			wantErr: "KAFKA_TOPIC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RateLimit.Track.Limit != 100 || cfg.RateLimit.Track.Window != time.Minute {
		t.Errorf("track limit = %+v, want 100/min", cfg.RateLimit.Track)
	}
	if cfg.RateLimit.Create.Limit != 10 || cfg.RateLimit.Analytics.Limit != 30 || cfg.RateLimit.Export.Limit != 5 {
		t.Errorf("unexpected limiter defaults: %+v", cfg.RateLimit)
	}
	if cfg.Geo.Timeout != 2*time.Second {
		t.Errorf("geo timeout = %s, want 2s", cfg.Geo.Timeout)
	}
	for _, p := range cfg.Geo.Providers {
		if !strings.HasPrefix(p, "https://") {
			t.Errorf("default provider %q is not https", p)
		}
	}
	if cfg.Shortener.RedirectStatus != 302 {
		t.Errorf("redirect status = %d, want 302", cfg.Shortener.RedirectStatus)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("REDIRECT_STATUS", "200")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid REDIRECT_STATUS")
	}
}
