package analytics

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", ErrInvalidFormat
	}
}

func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

// Filename is clicks-{code}-{yyyymmdd}.{ext}.
func Filename(code string, f Format, at time.Time) string {
	return "clicks-" + code + "-" + at.UTC().Format("20060102") + "." + string(f)
}

var csvColumns = []string{
	"timestamp", "country", "city", "region", "device_type", "browser", "os",
	"referrer", "referrer_domain", "utm_source", "utm_medium", "utm_campaign",
	"utm_term", "utm_content", "source_type",
}

// ExportRow is one click as exported. It never carries ipHash or fingerprint.
type ExportRow struct {
	Timestamp      time.Time `json:"timestamp"`
	Country        string    `json:"country"`
	City           string    `json:"city"`
	Region         string    `json:"region"`
	DeviceType     string    `json:"deviceType"`
	Browser        string    `json:"browser"`
	OS             string    `json:"os"`
	Referrer       string    `json:"referrer"`
	ReferrerDomain string    `json:"referrerDomain"`
	UTMSource      string    `json:"utmSource"`
	UTMMedium      string    `json:"utmMedium"`
	UTMCampaign    string    `json:"utmCampaign"`
	UTMTerm        string    `json:"utmTerm"`
	UTMContent     string    `json:"utmContent"`
	SourceType     string    `json:"sourceType"`
}

func toExportRow(ev *domain.ClickEvent) ExportRow {
	return ExportRow{
		Timestamp:      ev.Timestamp.UTC(),
		Country:        ev.Country,
		City:           ev.City,
		Region:         ev.Region,
		DeviceType:     string(ev.DeviceType),
		Browser:        ev.Browser,
		OS:             ev.OS,
		Referrer:       ev.Referrer,
		ReferrerDomain: ev.ReferrerDomain,
		UTMSource:      ev.UTMSource,
		UTMMedium:      ev.UTMMedium,
		UTMCampaign:    ev.UTMCampaign,
		UTMTerm:        ev.UTMTerm,
		UTMContent:     ev.UTMContent,
		SourceType:     string(ev.SourceType),
	}
}

// EscapeCSVField neutralizes spreadsheet formulas by prefixing a single
// quote to values starting with =, +, - or @. Quote doubling is left to the
// csv writer.
func EscapeCSVField(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@':
		return "'" + v
	}
	return v
}

func ExportCSV(events []domain.ClickEvent) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvColumns); err != nil {
		return nil, err
	}
	for i := range events {
		r := toExportRow(&events[i])
		record := []string{
			r.Timestamp.Format(time.RFC3339),
			r.Country, r.City, r.Region, r.DeviceType, r.Browser, r.OS,
			r.Referrer, r.ReferrerDomain, r.UTMSource, r.UTMMedium, r.UTMCampaign,
			r.UTMTerm, r.UTMContent, r.SourceType,
		}
		for j := range record {
			record[j] = EscapeCSVField(record[j])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type jsonExport struct {
	Code        string      `json:"code"`
	Period      Period      `json:"period"`
	ExportedAt  time.Time   `json:"exportedAt"`
	TotalClicks int         `json:"totalClicks"`
	Clicks      []ExportRow `json:"clicks"`
}

func ExportJSON(code string, period Period, events []domain.ClickEvent, exportedAt time.Time) ([]byte, error) {
	rows := make([]ExportRow, len(events))
	for i := range events {
		rows[i] = toExportRow(&events[i])
	}
	return json.MarshalIndent(jsonExport{
		Code:        code,
		Period:      period,
		ExportedAt:  exportedAt.UTC(),
		TotalClicks: len(rows),
		Clicks:      rows,
	}, "", "  ")
}
