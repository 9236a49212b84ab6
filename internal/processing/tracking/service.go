// Package tracking ingests click events. Tracking is best effort: once the
// short URL is resolved, persistence problems are logged and the caller
// still gets its destination.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/logger"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/metrics"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/validation"
	"github.com/IgorGrieder/clicktrack/internal/processing/visitor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	UniqueWindow       = 24 * time.Hour
	MaxUserAgentLength = 512
	maxReferrerLength  = 2048
	maxUTMLength       = 255
)

type Service struct {
	urls          ShortURLRepository
	clicks        ClickRepository
	limiter       Limiter
	geo           GeoResolver
	fingerprinter *visitor.Fingerprinter
	publisher     ClickPublisher

	newID func() string
	now   func() time.Time
	log   *zap.Logger
}

type Deps struct {
	URLs          ShortURLRepository
	Clicks        ClickRepository
	Limiter       Limiter
	Geo           GeoResolver
	Fingerprinter *visitor.Fingerprinter
	// Publisher is optional.
	Publisher ClickPublisher
}

func NewService(deps Deps) *Service {
	fp := deps.Fingerprinter
	if fp == nil {
		fp = visitor.NewFingerprinter("", nil)
	}

	return &Service{
		urls:          deps.URLs,
		clicks:        deps.Clicks,
		limiter:       deps.Limiter,
		geo:           deps.Geo,
		fingerprinter: fp,
		publisher:     deps.Publisher,
		newID:         uuid.NewString,
		now:           time.Now,
		log:           logger.Named("tracking"),
	}
}

// Track runs one click through rate limiting, lookup, enrichment, dedupe,
// persistence and the counter increment.
func (s *Service) Track(ctx context.Context, in TrackInput) (TrackResult, error) {
	code := strings.TrimSpace(in.Code)
	if !validation.IsShortCode(code) {
		return TrackResult{}, ErrInvalidCode
	}

	req := visitor.Normalize(in.Headers, in.RemoteAddr)

	result := TrackResult{RateLimit: s.limiter.CheckFailOpen(ctx, req.IP)}
	if !result.RateLimit.Success {
		return result, ErrRateLimited
	}

	link, err := s.urls.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return result, domain.ErrNotFound
		}
		return result, fmt.Errorf("find short url %q: %w", code, err)
	}
	if !link.IsActive {
		return result, ErrLinkInactive
	}
	result.OriginalURL = link.OriginalURL

	event := s.enrich(ctx, link, in, req)
	unique := s.isUnique(ctx, link, event)

	if err := s.clicks.Insert(ctx, event); err != nil {
		metrics.PersistenceFailure(metrics.StageInsert)
		s.log.Error("failed to persist click event",
			zap.String("code", code),
			zap.String("short_url_id", link.ID),
			zap.Error(err),
		)
		return result, nil
	}
	result.Tracked = true
	result.Unique = unique
	metrics.ClickTracked(unique)

	if err := s.urls.IncrementCounters(ctx, link.ID, unique); err != nil {
		metrics.PersistenceFailure(metrics.StageIncrement)
		s.log.Error("failed to increment click counters",
			zap.String("code", code),
			zap.String("short_url_id", link.ID),
			zap.Bool("unique", unique),
			zap.Error(err),
		)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishClick(ctx, link, event); err != nil {
			metrics.PersistenceFailure(metrics.StagePublish)
			s.log.Warn("failed to publish click event", zap.String("code", code), zap.Error(err))
		}
	}

	return result, nil
}

func (s *Service) enrich(ctx context.Context, link *domain.ShortURL, in TrackInput, req visitor.RequestInfo) *domain.ClickEvent {
	fingerprint := strings.ToLower(strings.TrimSpace(in.Fingerprint))
	if !visitor.ValidFingerprint(fingerprint) {
		fingerprint = s.fingerprinter.Fingerprint(req.UserAgent, req.IP, req.AcceptLanguage)
	}

	referrer := strings.TrimSpace(in.Referrer)
	if referrer == "" {
		referrer = req.Referrer
	}

	sourceType := in.SourceType
	if sourceType == "" {
		sourceType = domain.SourceDirect
	}

	geo := s.geo.Resolve(ctx, req.GeoHint, req.IP)

	return &domain.ClickEvent{
		ID:          s.newID(),
		ShortURLID:  link.ID,
		Timestamp:   s.now().UTC(),
		IPHash:      s.fingerprinter.HashIP(req.IP),
		UserAgent:   truncate(req.UserAgent, MaxUserAgentLength),
		Fingerprint: fingerprint,

		Country:     geo.Country,
		CountryName: geo.CountryName,
		City:        geo.City,
		Region:      geo.Region,
		Latitude:    geo.Latitude,
		Longitude:   geo.Longitude,

		DeviceType: visitor.DeviceType(req.UserAgent),
		Browser:    visitor.Browser(req.UserAgent),
		OS:         visitor.OS(req.UserAgent),

		Referrer:       truncate(referrer, maxReferrerLength),
		ReferrerDomain: visitor.ParseReferrer(referrer),

		UTMSource:   truncate(strings.TrimSpace(in.UTMSource), maxUTMLength),
		UTMMedium:   truncate(strings.TrimSpace(in.UTMMedium), maxUTMLength),
		UTMCampaign: truncate(strings.TrimSpace(in.UTMCampaign), maxUTMLength),
		UTMTerm:     truncate(strings.TrimSpace(in.UTMTerm), maxUTMLength),
		UTMContent:  truncate(strings.TrimSpace(in.UTMContent), maxUTMLength),

		SourceType: sourceType,
	}
}

// isUnique reports whether no click with the same fingerprint hit this link
// within UniqueWindow. A failed lookup counts the click as not unique so a
// storage hiccup cannot inflate uniqueClicks.
//
// Two concurrent first clicks from one visitor can both see no prior event
// and both count as unique.
func (s *Service) isUnique(ctx context.Context, link *domain.ShortURL, event *domain.ClickEvent) bool {
	exists, err := s.clicks.ExistsSince(ctx, link.ID, event.Fingerprint, event.Timestamp.Add(-UniqueWindow))
	if err != nil {
		metrics.PersistenceFailure(metrics.StageDedupe)
		s.log.Error("failed to check recent clicks", zap.String("short_url_id", link.ID), zap.Error(err))
		return false
	}
	return !exists
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// do not split a multi-byte rune
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
