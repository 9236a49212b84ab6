package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const shortURLsCollection = "short_urls"

type ShortURLRepository struct {
	coll *mongo.Collection
}

type shortURLDoc struct {
	ID           string    `bson:"_id"`
	Code         string    `bson:"code"`
	OriginalURL  string    `bson:"originalUrl"`
	Title        string    `bson:"title,omitempty"`
	OwnerID      string    `bson:"ownerId,omitempty"`
	IsActive     bool      `bson:"isActive"`
	CreatedAt    time.Time `bson:"createdAt"`
	TotalClicks  int64     `bson:"totalClicks"`
	UniqueClicks int64     `bson:"uniqueClicks"`
}

func NewShortURLRepository(ctx context.Context, m *db.Mongo) (*ShortURLRepository, error) {
	repo := &ShortURLRepository{coll: m.Collection(shortURLsCollection)}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_code"),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("owner_createdAt_desc").SetSparse(true),
		},
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *ShortURLRepository) Insert(ctx context.Context, link *domain.ShortURL) error {
	doc := shortURLDoc{
		ID:          link.ID,
		Code:        link.Code,
		OriginalURL: link.OriginalURL,
		Title:       link.Title,
		OwnerID:     link.OwnerID,
		IsActive:    link.IsActive,
		CreatedAt:   link.CreatedAt.UTC(),
	}

	_, err := r.coll.InsertOne(ctx, doc)
	if err == nil {
		return nil
	}

	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrCodeTaken
	}

	return err
}

func (r *ShortURLRepository) FindByCode(ctx context.Context, code string) (*domain.ShortURL, error) {
	var doc shortURLDoc
	err := r.coll.FindOne(ctx, bson.M{"code": code}).Decode(&doc)
	if err == nil {
		return mapShortURLDoc(doc), nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}

	return nil, err
}

func (r *ShortURLRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"isActive": active}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementCounters applies both counters in one $inc so the update is atomic
// per document.
func (r *ShortURLRepository) IncrementCounters(ctx context.Context, shortURLID string, unique bool) error {
	inc := bson.M{"totalClicks": int64(1)}
	if unique {
		inc["uniqueClicks"] = int64(1)
	}

	_, err := r.coll.UpdateByID(ctx, shortURLID, bson.M{"$inc": inc})
	return err
}

func mapShortURLDoc(doc shortURLDoc) *domain.ShortURL {
	return &domain.ShortURL{
		ID:           doc.ID,
		Code:         doc.Code,
		OriginalURL:  doc.OriginalURL,
		Title:        doc.Title,
		OwnerID:      doc.OwnerID,
		IsActive:     doc.IsActive,
		CreatedAt:    doc.CreatedAt.UTC(),
		TotalClicks:  doc.TotalClicks,
		UniqueClicks: doc.UniqueClicks,
	}
}
