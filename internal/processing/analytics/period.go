package analytics

import (
	"strings"
	"time"
)

type Period string

const (
	Period24h Period = "24h"
	Period7d  Period = "7d"
	Period30d Period = "30d"
	Period90d Period = "90d"
	PeriodAll Period = "all"

	DefaultPeriod = Period30d
)

var periodWindows = map[Period]time.Duration{
	Period24h: 24 * time.Hour,
	Period7d:  7 * 24 * time.Hour,
	Period30d: 30 * 24 * time.Hour,
	Period90d: 90 * 24 * time.Hour,
}

// ParsePeriod accepts the query value; empty means DefaultPeriod.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return DefaultPeriod, nil
	}
	if p == PeriodAll {
		return p, nil
	}
	if _, ok := periodWindows[p]; ok {
		return p, nil
	}
	return "", ErrInvalidPeriod
}

// Since is the inclusive lower bound of the period. PeriodAll returns the
// zero time.
func (p Period) Since(now time.Time) time.Time {
	window, ok := periodWindows[p]
	if !ok {
		return time.Time{}
	}
	return now.Add(-window)
}
