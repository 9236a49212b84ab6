package analytics

import "time"

type Report struct {
	Code           string    `json:"code"`
	OriginalURL    string    `json:"originalUrl"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"createdAt"`
	Period         Period    `json:"period"`
	TotalClicks    int64     `json:"totalClicks"`
	UniqueClicks   int64     `json:"uniqueClicks"`
	UniqueVisitors int       `json:"uniqueVisitors"`

	Countries    []NamedCount `json:"countries"`
	Devices      []NamedCount `json:"devices"`
	Browsers     []NamedCount `json:"browsers"`
	OS           []NamedCount `json:"os"`
	Sources      []NamedCount `json:"sources"`
	Referrers    []NamedCount `json:"referrers"`
	UTMSources   []NamedCount `json:"utmSources"`
	UTMMediums   []NamedCount `json:"utmMediums"`
	UTMCampaigns []NamedCount `json:"utmCampaigns"`

	Timeline     []DailyClicks  `json:"timeline"`
	Hourly       []HourlyClicks `json:"hourly"`
	RecentClicks []RecentClick  `json:"recentClicks"`
}

type RecentClick struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Country        string    `json:"country,omitempty"`
	City           string    `json:"city,omitempty"`
	DeviceType     string    `json:"deviceType"`
	Browser        string    `json:"browser"`
	OS             string    `json:"os"`
	ReferrerDomain string    `json:"referrerDomain"`
	SourceType     string    `json:"sourceType"`
}

type Export struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}
