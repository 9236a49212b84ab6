package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/config"
	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/processing/analytics"
	"github.com/IgorGrieder/clicktrack/internal/processing/links"
	"github.com/IgorGrieder/clicktrack/internal/processing/tracking"
	"github.com/IgorGrieder/clicktrack/internal/processing/visitor"
	"github.com/IgorGrieder/clicktrack/internal/ratelimit"
	"github.com/IgorGrieder/clicktrack/internal/storage/memory"
	"github.com/IgorGrieder/clicktrack/pkg/httputils"
	"github.com/golang-jwt/jwt/v5"
)

const testJWTSecret = "router-test-secret"

type stubGeo struct{}

func (stubGeo) Resolve(context.Context, visitor.GeoHint, string) domain.GeoLocation {
	return domain.GeoLocation{Country: "BR", City: "Sao Paulo"}
}

type envelope struct {
	Code       string          `json:"code"`
	Error      string          `json:"error"`
	RetryAfter int             `json:"retryAfter"`
	Data       json.RawMessage `json:"data"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newLimiter(t *testing.T, store ratelimit.Store, prefix string, limit int) *ratelimit.Limiter {
	t.Helper()
	l, err := ratelimit.New(store, ratelimit.Options{Limit: limit, Window: time.Minute, Prefix: prefix})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func newTestServer(t *testing.T, trackLimit int) *testServer {
	t.Helper()

	cfg := &config.Config{
		App:       config.AppConfig{Name: "clicktrack-test", Version: "test"},
		Server:    config.ServerConfig{CORSOrigins: []string{"*"}},
		Shortener: config.ShortenerConfig{BaseURL: "https://sho.rt/", RedirectStatus: http.StatusFound, SlugLength: 6},
		Auth:      config.AuthConfig{JWTSecret: testJWTSecret},
	}

	store := memory.NewStore()
	limits := ratelimit.NewMemoryStore()

	tracker := tracking.NewService(tracking.Deps{
		URLs:    store,
		Clicks:  store.Clicks(),
		Limiter: newLimiter(t, limits, "track", trackLimit),
		Geo:     stubGeo{},
	})

	handler := NewRouterWithOptions(cfg, RouterDeps{
		Tracker:   tracker,
		Links:     links.NewService(store, links.NewCryptoCodeGenerator(), cfg.Shortener.SlugLength),
		Analytics: analytics.NewService(store, store.Clicks()),
		Limiters: Limiters{
			Create:    newLimiter(t, limits, "create", 10),
			Analytics: newLimiter(t, limits, "analytics", 30),
			Export:    newLimiter(t, limits, "export", 5),
		},
	}, RouterOptions{EnableCORS: true})

	return &testServer{t: t, handler: handler}
}

func (s *testServer) do(method, target, owner string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "203.0.113.10:40000"
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	if owner != "" {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: owner}).SignedString([]byte(testJWTSecret))
		if err != nil {
			s.t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env
}

func (s *testServer) createLink(owner string) linkResponse {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/links", owner, map[string]string{
		"url":   "https://example.com/landing",
		"title": "Landing",
	})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var link linkResponse
	decode(s.t, rec, &link)
	return link
}

func TestRouter_TrackRedirectAnalyticsFlow(t *testing.T) {
	srv := newTestServer(t, 100)
	link := srv.createLink("owner-1")

	if link.ShortURL != "https://sho.rt/"+link.Code {
		t.Errorf("shortUrl = %q", link.ShortURL)
	}

	rec := srv.do(http.MethodPost, "/track", "", map[string]string{"code": link.Code, "utmSource": "newsletter"})
	if rec.Code != http.StatusOK {
		t.Fatalf("track status = %d, body %s", rec.Code, rec.Body.String())
	}
	var tracked trackResponse
	decode(t, rec, &tracked)
	if !tracked.Tracked || tracked.OriginalURL != "https://example.com/landing" {
		t.Errorf("track response = %+v", tracked)
	}
	if rec.Header().Get(httputils.RateLimitLimitHeader) != "100" || rec.Header().Get(httputils.RateLimitRemainingHeader) != "99" {
		t.Errorf("rate limit headers = %v", rec.Header())
	}

	rec = srv.do(http.MethodGet, "/"+link.Code+"?src=qr", "", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("redirect status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.com/landing" {
		t.Errorf("Location = %q", loc)
	}

	rec = srv.do(http.MethodGet, "/analytics/"+link.Code+"?period=7d", "owner-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analytics status = %d, body %s", rec.Code, rec.Body.String())
	}
	var report analytics.Report
	decode(t, rec, &report)
	if report.TotalClicks != 2 || report.UniqueClicks != 1 {
		t.Errorf("counters = %d/%d, want 2/1", report.TotalClicks, report.UniqueClicks)
	}
	if report.Period != analytics.Period7d || len(report.Timeline) != 8 {
		t.Errorf("period %q with %d timeline days", report.Period, len(report.Timeline))
	}
	if len(report.Sources) != 2 || len(report.UTMSources) != 1 || report.UTMSources[0].Name != "newsletter" {
		t.Errorf("sources = %+v utm = %+v", report.Sources, report.UTMSources)
	}
	if len(report.Countries) != 1 || report.Countries[0].Name != "BR" || report.Countries[0].Count != 2 {
		t.Errorf("countries = %+v", report.Countries)
	}

	rec = srv.do(http.MethodGet, "/analytics/"+link.Code+"/export?format=csv&period=all", "owner-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, "clicks-"+link.Code+"-") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "timestamp,country,city") {
		t.Errorf("csv = %q", rec.Body.String())
	}

	rec = srv.do(http.MethodGet, "/api/links/"+link.Code, "owner-1", nil)
	var got linkResponse
	decode(t, rec, &got)
	if rec.Code != http.StatusOK || got.TotalClicks != 2 || got.UniqueClicks != 1 {
		t.Errorf("get link status=%d body=%+v", rec.Code, got)
	}
}

func TestRouter_RedirectRecordsUTM(t *testing.T) {
	srv := newTestServer(t, 100)
	link := srv.createLink("owner-1")

	rec := srv.do(http.MethodGet, "/"+link.Code+"?utm_source=x&utm_campaign=y&utm_foo=z", "", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("redirect status = %d", rec.Code)
	}

	rec = srv.do(http.MethodGet, "/analytics/"+link.Code, "owner-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analytics status = %d, body %s", rec.Code, rec.Body.String())
	}
	var report analytics.Report
	decode(t, rec, &report)

	if len(report.UTMSources) != 1 || report.UTMSources[0].Name != "x" || report.UTMSources[0].Count != 1 {
		t.Errorf("utmSources = %+v", report.UTMSources)
	}
	if len(report.UTMCampaigns) != 1 || report.UTMCampaigns[0].Name != "y" {
		t.Errorf("utmCampaigns = %+v", report.UTMCampaigns)
	}
	if len(report.UTMMediums) != 0 {
		t.Errorf("utmMediums = %+v, want none", report.UTMMediums)
	}
}

func TestRouter_Errors(t *testing.T) {
	srv := newTestServer(t, 100)
	owned := srv.createLink("owner-1")
	anonymous := srv.createLink("")

	tests := []struct {
		name       string
		method     string
		target     string
		owner      string
		body       any
		wantStatus int
		wantError  string
	}{
		{"track unknown code", http.MethodPost, "/track", "", map[string]string{"code": "zzz999"}, http.StatusNotFound, "LINK_NOT_FOUND"},
		{"track invalid code", http.MethodPost, "/track", "", map[string]string{"code": "bad code!"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"track missing code", http.MethodPost, "/track", "", map[string]string{}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"track bad source", http.MethodPost, "/track", "", map[string]string{"code": owned.Code, "sourceType": "email"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"redirect unknown code", http.MethodGet, "/zzz999", "", nil, http.StatusNotFound, "LINK_NOT_FOUND"},
		{"create invalid url", http.MethodPost, "/api/links", "", map[string]string{"url": "ftp://example.com"}, http.StatusBadRequest, "INVALID_URL"},
		{"analytics without token", http.MethodGet, "/analytics/" + owned.Code, "", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"analytics other owner", http.MethodGet, "/analytics/" + owned.Code, "owner-2", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"analytics anonymous link", http.MethodGet, "/analytics/" + anonymous.Code, "owner-1", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"analytics unknown code", http.MethodGet, "/analytics/zzz999", "", nil, http.StatusNotFound, "LINK_NOT_FOUND"},
		{"analytics bad period", http.MethodGet, "/analytics/" + owned.Code + "?period=1y", "owner-1", nil, http.StatusBadRequest, "INVALID_PERIOD"},
		{"export bad format", http.MethodGet, "/analytics/" + owned.Code + "/export?format=xml", "owner-1", nil, http.StatusBadRequest, "INVALID_FORMAT"},
		{"update without isActive", http.MethodPatch, "/api/links/" + owned.Code, "owner-1", map[string]string{}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown route", http.MethodGet, "/a/b/c", "", nil, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(tt.method, tt.target, tt.owner, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if env := decode(t, rec, nil); env.Error != tt.wantError {
				t.Errorf("error = %q, want %q", env.Error, tt.wantError)
			}
		})
	}
}

func TestRouter_DeactivatedLinkIsGone(t *testing.T) {
	srv := newTestServer(t, 100)
	link := srv.createLink("owner-1")

	rec := srv.do(http.MethodPatch, "/api/links/"+link.Code, "owner-2", map[string]bool{"isActive": false})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign update status = %d", rec.Code)
	}

	rec = srv.do(http.MethodPatch, "/api/links/"+link.Code, "owner-1", map[string]bool{"isActive": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}

	if rec := srv.do(http.MethodGet, "/"+link.Code, "", nil); rec.Code != http.StatusGone {
		t.Errorf("redirect status = %d, want 410", rec.Code)
	}
	if rec := srv.do(http.MethodPost, "/track", "", map[string]string{"code": link.Code}); rec.Code != http.StatusGone {
		t.Errorf("track status = %d, want 410", rec.Code)
	}

	rec = srv.do(http.MethodGet, "/api/links/"+link.Code, "owner-1", nil)
	var got linkResponse
	decode(t, rec, &got)
	if got.IsActive || got.TotalClicks != 0 {
		t.Errorf("inactive link recorded clicks: %+v", got)
	}
}

func TestRouter_TrackRateLimited(t *testing.T) {
	srv := newTestServer(t, 2)
	link := srv.createLink("")

	for i := 0; i < 2; i++ {
		if rec := srv.do(http.MethodPost, "/track", "", map[string]string{"code": link.Code}); rec.Code != http.StatusOK {
			t.Fatalf("call %d status = %d", i+1, rec.Code)
		}
	}

	rec := srv.do(http.MethodPost, "/track", "", map[string]string{"code": link.Code})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	env := decode(t, rec, nil)
	if env.RetryAfter <= 0 || rec.Header().Get("Retry-After") == "" {
		t.Errorf("retryAfter = %d, header %q", env.RetryAfter, rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get(httputils.RateLimitRemainingHeader) != "0" {
		t.Errorf("remaining = %q", rec.Header().Get(httputils.RateLimitRemainingHeader))
	}
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t, 100)

	rec := srv.do(http.MethodGet, "/health", "", nil)
	var health HealthResponse
	env := decode(t, rec, &health)
	if rec.Code != http.StatusOK || env.Code != "HEALTHY" || health.Status != "ok" || health.Version != "test" {
		t.Errorf("status=%d env=%+v health=%+v", rec.Code, env, health)
	}
}
