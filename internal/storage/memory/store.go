// Package memory keeps links and clicks in process memory. It backs local
// development and tests; data does not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
)

type Store struct {
	mu     sync.RWMutex
	byID   map[string]*domain.ShortURL
	byCode map[string]string
	clicks map[string][]domain.ClickEvent
}

func NewStore() *Store {
	return &Store{
		byID:   make(map[string]*domain.ShortURL),
		byCode: make(map[string]string),
		clicks: make(map[string][]domain.ClickEvent),
	}
}

func (s *Store) Insert(_ context.Context, link *domain.ShortURL) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byCode[link.Code]; taken {
		return domain.ErrCodeTaken
	}

	cp := *link
	s.byID[cp.ID] = &cp
	s.byCode[cp.Code] = cp.ID
	return nil
}

func (s *Store) FindByCode(_ context.Context, code string) (*domain.ShortURL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *Store) SetActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	link.IsActive = active
	return nil
}

func (s *Store) IncrementCounters(_ context.Context, shortURLID string, unique bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.byID[shortURLID]
	if !ok {
		return domain.ErrNotFound
	}
	link.TotalClicks++
	if unique {
		link.UniqueClicks++
	}
	return nil
}

// Clicks returns a view of the store as a click repository. Link and click
// methods share names, so they live on separate types.
func (s *Store) Clicks() *ClickStore {
	return &ClickStore{s: s}
}

type ClickStore struct {
	s *Store
}

func (c *ClickStore) Insert(_ context.Context, event *domain.ClickEvent) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, ok := c.s.byID[event.ShortURLID]; !ok {
		return domain.ErrNotFound
	}
	c.s.clicks[event.ShortURLID] = append(c.s.clicks[event.ShortURLID], *event)
	return nil
}

func (c *ClickStore) ExistsSince(_ context.Context, shortURLID, fingerprint string, since time.Time) (bool, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	for _, e := range c.s.clicks[shortURLID] {
		if e.Fingerprint == fingerprint && !e.Timestamp.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (c *ClickStore) ListSince(_ context.Context, shortURLID string, since time.Time) ([]domain.ClickEvent, error) {
	c.s.mu.RLock()
	out := make([]domain.ClickEvent, 0, len(c.s.clicks[shortURLID]))
	for _, e := range c.s.clicks[shortURLID] {
		if since.IsZero() || !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	c.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
