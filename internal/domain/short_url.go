package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("short url not found")
	ErrCodeTaken = errors.New("short code taken")
)

// ShortURL is a redirect target identified by a unique code.
// Counters are only ever changed through the storage layer's atomic increment.
type ShortURL struct {
	ID           string
	Code         string
	OriginalURL  string
	Title        string
	OwnerID      string // empty for anonymous links
	IsActive     bool
	CreatedAt    time.Time
	TotalClicks  int64
	UniqueClicks int64
}

// OwnedBy reports whether ownerID owns the link. Anonymous links have no owner.
func (u *ShortURL) OwnedBy(ownerID string) bool {
	return u != nil && u.OwnerID != "" && ownerID != "" && u.OwnerID == ownerID
}
