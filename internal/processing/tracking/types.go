package tracking

import (
	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/processing/visitor"
	"github.com/IgorGrieder/clicktrack/internal/ratelimit"
)

type TrackInput struct {
	Code string
	// Fingerprint is an optional client-computed value. Anything that is not
	// 32 hex characters is replaced by the server-side fingerprint.
	Fingerprint string
	// Referrer overrides the Referer header when set.
	Referrer   string
	SourceType domain.SourceType

	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string

	Headers    visitor.HeaderMap
	RemoteAddr string
}

type TrackResult struct {
	OriginalURL string
	Tracked     bool
	Unique      bool
	// RateLimit is set whenever the limiter ran, including on ErrRateLimited.
	RateLimit ratelimit.Result
}
