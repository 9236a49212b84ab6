package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clickEventColumns = `id, short_url_id, timestamp, ip_hash, user_agent, fingerprint,
	country, country_name, city, region, latitude, longitude,
	device_type, browser, os, referrer, referrer_domain,
	utm_source, utm_medium, utm_campaign, utm_term, utm_content, source_type`

type ClickEventRepository struct {
	pool *pgxpool.Pool
}

func NewClickEventRepository(p *db.Postgres) (*ClickEventRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &ClickEventRepository{pool: p.Pool}, nil
}

func (r *ClickEventRepository) Insert(ctx context.Context, event *domain.ClickEvent) error {
	if event == nil {
		return errors.New("click event is nil")
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO click_events (`+clickEventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		event.ID,
		event.ShortURLID,
		toTimestamptz(event.Timestamp),
		event.IPHash,
		event.UserAgent,
		event.Fingerprint,
		event.Country,
		event.CountryName,
		event.City,
		event.Region,
		event.Latitude,
		event.Longitude,
		string(event.DeviceType),
		event.Browser,
		event.OS,
		event.Referrer,
		event.ReferrerDomain,
		event.UTMSource,
		event.UTMMedium,
		event.UTMCampaign,
		event.UTMTerm,
		event.UTMContent,
		string(event.SourceType),
	)
	return err
}

// ExistsSince reports whether fingerprint clicked the link at or after since.
func (r *ClickEventRepository) ExistsSince(ctx context.Context, shortURLID, fingerprint string, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM click_events
			 WHERE short_url_id = $1 AND fingerprint = $2 AND timestamp >= $3
		)`,
		shortURLID, fingerprint, toTimestamptz(since),
	).Scan(&exists)
	return exists, err
}

func (r *ClickEventRepository) ListSince(ctx context.Context, shortURLID string, since time.Time) ([]domain.ClickEvent, error) {
	query := `SELECT ` + clickEventColumns + ` FROM click_events WHERE short_url_id = $1`
	args := []any{shortURLID}
	if !since.IsZero() {
		query += ` AND timestamp >= $2`
		args = append(args, toTimestamptz(since))
	}
	query += ` ORDER BY timestamp ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, scanClickEvent)
}

func scanClickEvent(row pgx.CollectableRow) (domain.ClickEvent, error) {
	var (
		event      domain.ClickEvent
		timestamp  pgtype.Timestamptz
		deviceType string
		sourceType string
	)

	err := row.Scan(
		&event.ID,
		&event.ShortURLID,
		&timestamp,
		&event.IPHash,
		&event.UserAgent,
		&event.Fingerprint,
		&event.Country,
		&event.CountryName,
		&event.City,
		&event.Region,
		&event.Latitude,
		&event.Longitude,
		&deviceType,
		&event.Browser,
		&event.OS,
		&event.Referrer,
		&event.ReferrerDomain,
		&event.UTMSource,
		&event.UTMMedium,
		&event.UTMCampaign,
		&event.UTMTerm,
		&event.UTMContent,
		&sourceType,
	)
	if err != nil {
		return domain.ClickEvent{}, err
	}

	event.Timestamp = timestamp.Time.UTC()
	event.DeviceType = domain.DeviceType(deviceType)
	event.SourceType = domain.SourceType(sourceType)
	return event, nil
}

func toTimestamptz(v time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  v.UTC(),
		Valid: true,
	}
}
