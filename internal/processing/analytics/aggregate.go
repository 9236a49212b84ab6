package analytics

import (
	"sort"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
)

type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type DailyClicks struct {
	Date   string `json:"date"`
	Clicks int    `json:"clicks"`
}

type HourlyClicks struct {
	Hour   int `json:"hour"`
	Clicks int `json:"clicks"`
}

// GroupAndCount counts events per key, most frequent first with ties broken
// by name. Empty keys become defaultKey; with an empty defaultKey they are
// dropped instead.
func GroupAndCount(events []domain.ClickEvent, key func(*domain.ClickEvent) string, defaultKey string) []NamedCount {
	counts := make(map[string]int)
	for i := range events {
		k := key(&events[i])
		if k == "" {
			if defaultKey == "" {
				continue
			}
			k = defaultKey
		}
		counts[k]++
	}

	out := make([]NamedCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, NamedCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Timeline buckets events by UTC day in ascending order. With a non-zero from
// every day between from and to is listed, zero-click days included. With a
// zero from only the span between the first and last click is filled.
func Timeline(events []domain.ClickEvent, from, to time.Time) []DailyClicks {
	byDate := make(map[string]int)
	var first, last time.Time
	for i := range events {
		ts := events[i].Timestamp.UTC()
		byDate[ts.Format(time.DateOnly)]++
		if first.IsZero() || ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}

	if from.IsZero() {
		if len(events) == 0 {
			return []DailyClicks{}
		}
		from, to = first, last
	}

	start, end := dateOnly(from), dateOnly(to)
	out := make([]DailyClicks, 0, int(end.Sub(start).Hours()/24)+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		ds := day.Format(time.DateOnly)
		out = append(out, DailyClicks{Date: ds, Clicks: byDate[ds]})
	}
	return out
}

// Hourly buckets events by UTC hour of day, always 24 entries.
func Hourly(events []domain.ClickEvent) []HourlyClicks {
	var buckets [24]int
	for i := range events {
		buckets[events[i].Timestamp.UTC().Hour()]++
	}

	out := make([]HourlyClicks, 24)
	for h := range out {
		out[h] = HourlyClicks{Hour: h, Clicks: buckets[h]}
	}
	return out
}

// UniqueVisitors counts distinct fingerprints in the slice.
func UniqueVisitors(events []domain.ClickEvent) int {
	seen := make(map[string]struct{}, len(events))
	for i := range events {
		if fp := events[i].Fingerprint; fp != "" {
			seen[fp] = struct{}{}
		}
	}
	return len(seen)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
