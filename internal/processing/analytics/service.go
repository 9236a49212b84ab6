// Package analytics turns stored click events into owner-facing reports and
// exports. Every view is recomputed from the queried slice.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/processing/visitor"
)

const (
	recentClicksLimit = 10
	unknownCountry    = "Unknown"
)

type Service struct {
	urls   ShortURLRepository
	clicks ClickRepository
	now    func() time.Time
}

func NewService(urls ShortURLRepository, clicks ClickRepository) *Service {
	return &Service{
		urls:   urls,
		clicks: clicks,
		now:    time.Now,
	}
}

func (s *Service) GetAnalytics(ctx context.Context, code, ownerID string, period Period) (*Report, error) {
	link, err := s.authorize(ctx, code, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	since := period.Since(now)

	events, err := s.clicks.ListSince(ctx, link.ID, since)
	if err != nil {
		return nil, fmt.Errorf("list clicks: %w", err)
	}

	return buildReport(link, period, events, since, now), nil
}

func (s *Service) Export(ctx context.Context, code, ownerID string, period Period, format Format) (*Export, error) {
	link, err := s.authorize(ctx, code, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	events, err := s.clicks.ListSince(ctx, link.ID, period.Since(now))
	if err != nil {
		return nil, fmt.Errorf("list clicks: %w", err)
	}

	var body []byte
	switch format {
	case FormatJSON:
		body, err = ExportJSON(link.Code, period, events, now)
	case FormatCSV:
		body, err = ExportCSV(events)
	default:
		return nil, ErrInvalidFormat
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s export: %w", format, err)
	}

	return &Export{
		Filename:    Filename(link.Code, format, now),
		ContentType: format.ContentType(),
		Body:        body,
		Rows:        len(events),
	}, nil
}

// authorize resolves the link and checks ownership. Unknown codes are
// reported before ownership so 404 and 401 stay distinguishable.
func (s *Service) authorize(ctx context.Context, code, ownerID string) (*domain.ShortURL, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrNotFound
	}

	link, err := s.urls.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find short url %q: %w", code, err)
	}
	if !link.OwnedBy(ownerID) {
		return nil, ErrUnauthorized
	}
	return link, nil
}

func buildReport(link *domain.ShortURL, period Period, events []domain.ClickEvent, since, now time.Time) *Report {
	var timeline []DailyClicks
	if since.IsZero() {
		timeline = Timeline(events, time.Time{}, time.Time{})
	} else {
		timeline = Timeline(events, since, now)
	}

	return &Report{
		Code:           link.Code,
		OriginalURL:    link.OriginalURL,
		Title:          link.Title,
		CreatedAt:      link.CreatedAt,
		Period:         period,
		TotalClicks:    link.TotalClicks,
		UniqueClicks:   link.UniqueClicks,
		UniqueVisitors: UniqueVisitors(events),

		Countries: GroupAndCount(events, func(e *domain.ClickEvent) string { return e.Country }, unknownCountry),
		Devices:   GroupAndCount(events, func(e *domain.ClickEvent) string { return string(e.DeviceType) }, string(domain.DeviceUnknown)),
		Browsers:  GroupAndCount(events, func(e *domain.ClickEvent) string { return e.Browser }, visitor.BrowserOther),
		OS:        GroupAndCount(events, func(e *domain.ClickEvent) string { return e.OS }, visitor.OSOther),
		Sources:   GroupAndCount(events, func(e *domain.ClickEvent) string { return string(e.SourceType) }, string(domain.SourceDirect)),
		Referrers: GroupAndCount(events, func(e *domain.ClickEvent) string { return e.ReferrerDomain }, visitor.ReferrerDirect),

		UTMSources:   GroupAndCount(events, func(e *domain.ClickEvent) string { return e.UTMSource }, ""),
		UTMMediums:   GroupAndCount(events, func(e *domain.ClickEvent) string { return e.UTMMedium }, ""),
		UTMCampaigns: GroupAndCount(events, func(e *domain.ClickEvent) string { return e.UTMCampaign }, ""),

		Timeline:     timeline,
		Hourly:       Hourly(events),
		RecentClicks: recentClicks(events, recentClicksLimit),
	}
}

// recentClicks expects events oldest first and returns the newest n, newest
// first.
func recentClicks(events []domain.ClickEvent, n int) []RecentClick {
	n = min(n, len(events))
	out := make([]RecentClick, 0, n)
	for i := len(events) - 1; i >= len(events)-n; i-- {
		ev := &events[i]
		out = append(out, RecentClick{
			ID:             ev.ID,
			Timestamp:      ev.Timestamp.UTC(),
			Country:        ev.Country,
			City:           ev.City,
			DeviceType:     string(ev.DeviceType),
			Browser:        ev.Browser,
			OS:             ev.OS,
			ReferrerDomain: ev.ReferrerDomain,
			SourceType:     string(ev.SourceType),
		})
	}
	return out
}
