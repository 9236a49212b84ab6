package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
)

var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidFormat = errors.New("invalid export format")
	ErrUnauthorized  = errors.New("caller does not own this link")
)

type ShortURLRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.ShortURL, error)
}

type ClickRepository interface {
	// ListSince returns the link's clicks at or after since, oldest first.
	// A zero since returns every click.
	ListSince(ctx context.Context, shortURLID string, since time.Time) ([]domain.ClickEvent, error)
}
