package domain

import "time"

type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
	DeviceUnknown DeviceType = "unknown"
)

type SourceType string

const (
	SourceDirect SourceType = "direct"
	SourceQR     SourceType = "qr"
	SourceAPI    SourceType = "api"
)

// ParseSourceType maps raw input onto a known source, defaulting to direct.
func ParseSourceType(raw string) SourceType {
	switch SourceType(raw) {
	case SourceQR:
		return SourceQR
	case SourceAPI:
		return SourceAPI
	default:
		return SourceDirect
	}
}

// ClickEvent is one tracked visit. It is written once and never updated.
type ClickEvent struct {
	ID          string
	ShortURLID  string
	Timestamp   time.Time
	IPHash      string
	UserAgent   string
	Fingerprint string

	Country     string
	CountryName string
	City        string
	Region      string
	Latitude    *float64
	Longitude   *float64

	DeviceType DeviceType
	Browser    string
	OS         string

	Referrer       string
	ReferrerDomain string

	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string

	SourceType SourceType
}
