package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const shortURLColumns = `id, code, original_url, title, owner_id, is_active, created_at, total_clicks, unique_clicks`

type ShortURLRepository struct {
	pool *pgxpool.Pool
}

func NewShortURLRepository(p *db.Postgres) (*ShortURLRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &ShortURLRepository{pool: p.Pool}, nil
}

func (r *ShortURLRepository) Insert(ctx context.Context, link *domain.ShortURL) error {
	if link == nil {
		return errors.New("link is nil")
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO short_urls (id, code, original_url, title, owner_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		link.ID,
		link.Code,
		link.OriginalURL,
		toNullableText(link.Title),
		toNullableText(link.OwnerID),
		link.IsActive,
		toTimestamptz(link.CreatedAt),
	)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrCodeTaken
	}
	return err
}

func (r *ShortURLRepository) FindByCode(ctx context.Context, code string) (*domain.ShortURL, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+shortURLColumns+` FROM short_urls WHERE code = $1`, code)

	link, err := scanShortURL(row)
	if err == nil {
		return link, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return nil, err
}

func (r *ShortURLRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE short_urls SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementCounters delegates to increment_click_counters so concurrent clicks
// on the same link never lose an update.
func (r *ShortURLRepository) IncrementCounters(ctx context.Context, shortURLID string, unique bool) error {
	_, err := r.pool.Exec(ctx, `SELECT increment_click_counters($1, $2)`, shortURLID, unique)
	return err
}

func scanShortURL(row pgx.Row) (*domain.ShortURL, error) {
	var (
		link      domain.ShortURL
		title     pgtype.Text
		ownerID   pgtype.Text
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&link.ID,
		&link.Code,
		&link.OriginalURL,
		&title,
		&ownerID,
		&link.IsActive,
		&createdAt,
		&link.TotalClicks,
		&link.UniqueClicks,
	)
	if err != nil {
		return nil, err
	}

	link.Title = nullableTextValue(title)
	link.OwnerID = nullableTextValue(ownerID)
	link.CreatedAt = createdAt.Time.UTC()
	return &link, nil
}

func toNullableText(v string) pgtype.Text {
	v = strings.TrimSpace(v)
	if v == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{
		String: v,
		Valid:  true,
	}
}

func nullableTextValue(v pgtype.Text) string {
	if !v.Valid {
		return ""
	}
	return v.String
}
