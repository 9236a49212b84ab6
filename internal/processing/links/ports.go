package links

import (
	"context"
	"errors"

	"github.com/IgorGrieder/clicktrack/internal/domain"
)

var (
	ErrInvalidURL   = errors.New("invalid url")
	ErrUnauthorized = errors.New("caller does not own this link")
)

type Repository interface {
	// Insert returns domain.ErrCodeTaken when the code already exists.
	Insert(ctx context.Context, link *domain.ShortURL) error
	FindByCode(ctx context.Context, code string) (*domain.ShortURL, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type CodeGenerator interface {
	Generate(length int) (string, error)
}
