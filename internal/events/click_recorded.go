package events

import (
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
)

const ClickRecordedType = "click.recorded"

// ClickRecorded is emitted after a click event is persisted. It carries the
// enrichment results but never the raw IP or the visitor fingerprint.
type ClickRecorded struct {
	EventID    string `json:"eventId"`
	Type       string `json:"type"`
	ShortURLID string `json:"shortUrlId"`
	Code       string `json:"code"`
	OccurredAt string `json:"occurredAt"`

	Country        string `json:"country,omitempty"`
	City           string `json:"city,omitempty"`
	DeviceType     string `json:"deviceType"`
	Browser        string `json:"browser,omitempty"`
	OS             string `json:"os,omitempty"`
	ReferrerDomain string `json:"referrerDomain,omitempty"`
	UTMSource      string `json:"utmSource,omitempty"`
	UTMMedium      string `json:"utmMedium,omitempty"`
	UTMCampaign    string `json:"utmCampaign,omitempty"`
	SourceType     string `json:"sourceType"`
}

func NewClickRecorded(link *domain.ShortURL, e *domain.ClickEvent) ClickRecorded {
	return ClickRecorded{
		EventID:        e.ID,
		Type:           ClickRecordedType,
		ShortURLID:     link.ID,
		Code:           link.Code,
		OccurredAt:     e.Timestamp.UTC().Format(time.RFC3339Nano),
		Country:        e.Country,
		City:           e.City,
		DeviceType:     string(e.DeviceType),
		Browser:        e.Browser,
		OS:             e.OS,
		ReferrerDomain: e.ReferrerDomain,
		UTMSource:      e.UTMSource,
		UTMMedium:      e.UTMMedium,
		UTMCampaign:    e.UTMCampaign,
		SourceType:     string(e.SourceType),
	}
}
