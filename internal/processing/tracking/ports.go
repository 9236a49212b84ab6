package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/processing/visitor"
	"github.com/IgorGrieder/clicktrack/internal/ratelimit"
)

var (
	ErrInvalidCode  = errors.New("invalid short code")
	ErrRateLimited  = errors.New("rate limited")
	ErrLinkInactive = errors.New("link inactive")
)

type ShortURLRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.ShortURL, error)
	// IncrementCounters bumps totalClicks, and uniqueClicks when unique is
	// set, in a single atomic storage operation.
	IncrementCounters(ctx context.Context, shortURLID string, unique bool) error
}

type ClickRepository interface {
	Insert(ctx context.Context, event *domain.ClickEvent) error
	ExistsSince(ctx context.Context, shortURLID, fingerprint string, since time.Time) (bool, error)
}

type Limiter interface {
	CheckFailOpen(ctx context.Context, identifier string) ratelimit.Result
}

type GeoResolver interface {
	Resolve(ctx context.Context, hint visitor.GeoHint, ip string) domain.GeoLocation
}

type ClickPublisher interface {
	PublishClick(ctx context.Context, link *domain.ShortURL, event *domain.ClickEvent) error
}
