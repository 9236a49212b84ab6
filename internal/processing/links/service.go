package links

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/google/uuid"
)

// MaxCodeAttempts bounds the retries on code collisions.
const MaxCodeAttempts = 10

// reservedCodes are the top-level route segments a code would be shadowed by.
var reservedCodes = map[string]struct{}{
	"analytics": {},
	"api":       {},
	"health":    {},
	"metrics":   {},
	"track":     {},
}

// IsReservedCode reports whether code collides with a fixed route.
func IsReservedCode(code string) bool {
	_, ok := reservedCodes[strings.ToLower(code)]
	return ok
}

type Service struct {
	repo       Repository
	codes      CodeGenerator
	codeLength int
	newID      func() string
	now        func() time.Time
}

func NewService(repo Repository, codes CodeGenerator, codeLength int) *Service {
	if codeLength <= 0 {
		codeLength = 6
	}

	return &Service{
		repo:       repo,
		codes:      codes,
		codeLength: codeLength,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

func (s *Service) CreateLink(ctx context.Context, in CreateLinkInput) (*domain.ShortURL, error) {
	normalizedURL, err := validateAndNormalizeURL(in.URL)
	if err != nil {
		return nil, ErrInvalidURL
	}

	link := &domain.ShortURL{
		ID:          s.newID(),
		OriginalURL: normalizedURL,
		Title:       strings.TrimSpace(in.Title),
		OwnerID:     strings.TrimSpace(in.OwnerID),
		IsActive:    true,
		CreatedAt:   s.now().UTC(),
	}

	for range MaxCodeAttempts {
		code, err := s.codes.Generate(s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		if IsReservedCode(code) {
			continue
		}
		link.Code = code

		if err := s.repo.Insert(ctx, link); err != nil {
			if errors.Is(err, domain.ErrCodeTaken) {
				continue
			}
			return nil, err
		}

		return link, nil
	}

	return nil, fmt.Errorf("no free code after %d attempts: %w", MaxCodeAttempts, domain.ErrCodeTaken)
}

// GetLink returns an owned link. Unknown codes are reported before
// ownership, as in analytics.
func (s *Service) GetLink(ctx context.Context, code, ownerID string) (*domain.ShortURL, error) {
	link, err := s.find(ctx, code)
	if err != nil {
		return nil, err
	}
	if !link.OwnedBy(ownerID) {
		return nil, ErrUnauthorized
	}
	return link, nil
}

// SetActive activates or deactivates a link. Deactivated links answer 410
// and stop recording clicks.
func (s *Service) SetActive(ctx context.Context, code, ownerID string, active bool) (*domain.ShortURL, error) {
	link, err := s.GetLink(ctx, code, ownerID)
	if err != nil {
		return nil, err
	}
	if link.IsActive == active {
		return link, nil
	}

	if err := s.repo.SetActive(ctx, link.ID, active); err != nil {
		return nil, err
	}
	link.IsActive = active
	return link, nil
}

func (s *Service) find(ctx context.Context, code string) (*domain.ShortURL, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.FindByCode(ctx, code)
}

func validateAndNormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", ErrInvalidURL
	}

	u.Fragment = ""
	return u.String(), nil
}
