package redis

import (
	"context"
	"time"
)

// WindowStore keeps fixed-window counters in Redis so that every API replica
// shares the same limits. It satisfies ratelimit.Store.
type WindowStore struct {
	client *Client
	now    func() time.Time
}

func NewWindowStore(client *Client) *WindowStore {
	return &WindowStore{
		client: client,
		now:    time.Now,
	}
}

// Hit increments key and starts its window on the first hit. The window is
// the key's TTL, so Redis expiry doubles as the sweep.
func (s *WindowStore) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	if key == "" {
		key = "unknown"
	}

	count, err := s.client.Incr(ctx, key)
	if err != nil {
		return 0, time.Time{}, err
	}

	now := s.now()
	if count == 1 {
		if _, err := s.client.PExpire(ctx, key, window); err != nil {
			return 0, time.Time{}, err
		}
		return count, now.Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, key)
	if err != nil {
		return 0, time.Time{}, err
	}
	if ttl < 0 {
		// A previous PEXPIRE was lost; without a TTL the key would never reset.
		if _, err := s.client.PExpire(ctx, key, window); err != nil {
			return 0, time.Time{}, err
		}
		ttl = window
	}

	return count, now.Add(ttl), nil
}
