package mongo

import (
	"context"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const clickEventsCollection = "click_events"

type ClickEventRepository struct {
	coll *mongo.Collection
}

type clickEventDoc struct {
	ID          string    `bson:"_id"`
	ShortURLID  string    `bson:"shortUrlId"`
	Timestamp   time.Time `bson:"timestamp"`
	IPHash      string    `bson:"ipHash"`
	UserAgent   string    `bson:"userAgent,omitempty"`
	Fingerprint string    `bson:"fingerprint"`

	Country     string   `bson:"country,omitempty"`
	CountryName string   `bson:"countryName,omitempty"`
	City        string   `bson:"city,omitempty"`
	Region      string   `bson:"region,omitempty"`
	Latitude    *float64 `bson:"latitude,omitempty"`
	Longitude   *float64 `bson:"longitude,omitempty"`

	DeviceType string `bson:"deviceType"`
	Browser    string `bson:"browser,omitempty"`
	OS         string `bson:"os,omitempty"`

	Referrer       string `bson:"referrer,omitempty"`
	ReferrerDomain string `bson:"referrerDomain,omitempty"`

	UTMSource   string `bson:"utmSource,omitempty"`
	UTMMedium   string `bson:"utmMedium,omitempty"`
	UTMCampaign string `bson:"utmCampaign,omitempty"`
	UTMTerm     string `bson:"utmTerm,omitempty"`
	UTMContent  string `bson:"utmContent,omitempty"`

	SourceType string `bson:"sourceType"`
}

func NewClickEventRepository(ctx context.Context, m *db.Mongo) (*ClickEventRepository, error) {
	repo := &ClickEventRepository{coll: m.Collection(clickEventsCollection)}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "shortUrlId", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("link_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "shortUrlId", Value: 1},
				{Key: "fingerprint", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("link_fingerprint_timestamp"),
		},
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *ClickEventRepository) Insert(ctx context.Context, event *domain.ClickEvent) error {
	_, err := r.coll.InsertOne(ctx, toClickEventDoc(event))
	return err
}

func (r *ClickEventRepository) ExistsSince(ctx context.Context, shortURLID, fingerprint string, since time.Time) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"shortUrlId":  shortURLID,
		"fingerprint": fingerprint,
		"timestamp":   bson.M{"$gte": since.UTC()},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ClickEventRepository) ListSince(ctx context.Context, shortURLID string, since time.Time) ([]domain.ClickEvent, error) {
	filter := bson.M{"shortUrlId": shortURLID}
	if !since.IsZero() {
		filter["timestamp"] = bson.M{"$gte": since.UTC()}
	}

	cur, err := r.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []clickEventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.ClickEvent, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromClickEventDoc(doc))
	}
	return out, nil
}

func toClickEventDoc(e *domain.ClickEvent) clickEventDoc {
	return clickEventDoc{
		ID:             e.ID,
		ShortURLID:     e.ShortURLID,
		Timestamp:      e.Timestamp.UTC(),
		IPHash:         e.IPHash,
		UserAgent:      e.UserAgent,
		Fingerprint:    e.Fingerprint,
		Country:        e.Country,
		CountryName:    e.CountryName,
		City:           e.City,
		Region:         e.Region,
		Latitude:       e.Latitude,
		Longitude:      e.Longitude,
		DeviceType:     string(e.DeviceType),
		Browser:        e.Browser,
		OS:             e.OS,
		Referrer:       e.Referrer,
		ReferrerDomain: e.ReferrerDomain,
		UTMSource:      e.UTMSource,
		UTMMedium:      e.UTMMedium,
		UTMCampaign:    e.UTMCampaign,
		UTMTerm:        e.UTMTerm,
		UTMContent:     e.UTMContent,
		SourceType:     string(e.SourceType),
	}
}

func fromClickEventDoc(d clickEventDoc) domain.ClickEvent {
	return domain.ClickEvent{
		ID:             d.ID,
		ShortURLID:     d.ShortURLID,
		Timestamp:      d.Timestamp.UTC(),
		IPHash:         d.IPHash,
		UserAgent:      d.UserAgent,
		Fingerprint:    d.Fingerprint,
		Country:        d.Country,
		CountryName:    d.CountryName,
		City:           d.City,
		Region:         d.Region,
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		DeviceType:     domain.DeviceType(d.DeviceType),
		Browser:        d.Browser,
		OS:             d.OS,
		Referrer:       d.Referrer,
		ReferrerDomain: d.ReferrerDomain,
		UTMSource:      d.UTMSource,
		UTMMedium:      d.UTMMedium,
		UTMCampaign:    d.UTMCampaign,
		UTMTerm:        d.UTMTerm,
		UTMContent:     d.UTMContent,
		SourceType:     domain.SourceType(d.SourceType),
	}
}
