package analytics

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
)

func TestEscapeCSVField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"=cmd|'/C calc'", "'=cmd|'/C calc'"},
		{"+1+1", "'+1+1"},
		{"-2", "'-2"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"google.com", "google.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EscapeCSVField(tt.in); got != tt.want {
			t.Errorf("EscapeCSVField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExportCSV(t *testing.T) {
	events := []domain.ClickEvent{
		{
			Timestamp:      at("2026-03-01T10:00:00Z"),
			Country:        "BR",
			DeviceType:     domain.DeviceMobile,
			Browser:        "Chrome",
			OS:             "Android",
			Referrer:       "=cmd|'/C calc'",
			ReferrerDomain: "Unknown",
			UTMCampaign:    `spring "sale", 2026`,
			SourceType:     domain.SourceQR,
			IPHash:         "deadbeefdeadbeef",
			Fingerprint:    "0123456789abcdef0123456789abcdef",
		},
	}

	body, err := ExportCSV(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw := string(body)
	if !strings.Contains(raw, "'=cmd|'/C calc'") {
		t.Fatalf("formula not neutralized:\n%s", raw)
	}
	if !strings.Contains(raw, `"spring ""sale"", 2026"`) {
		t.Fatalf("quotes not doubled:\n%s", raw)
	}
	if strings.Contains(raw, "deadbeef") {
		t.Fatal("export must not contain the ip hash or fingerprint")
	}

	records, err := csv.NewReader(strings.NewReader(raw)).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(csvColumns, ",") {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][0] != "2026-03-01T10:00:00Z" || records[1][14] != "qr" {
		t.Fatalf("unexpected row %v", records[1])
	}
}

func TestExportJSON(t *testing.T) {
	events := clicksOn("2026-03-01", 3)
	exportedAt := at("2026-03-05T09:00:00Z")

	body, err := ExportJSON("abc123", Period7d, events, exportedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Code        string      `json:"code"`
		Period      string      `json:"period"`
		ExportedAt  time.Time   `json:"exportedAt"`
		TotalClicks int         `json:"totalClicks"`
		Clicks      []ExportRow `json:"clicks"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Code != "abc123" || got.Period != "7d" || got.TotalClicks != 3 || len(got.Clicks) != 3 {
		t.Fatalf("unexpected export metadata %+v", got)
	}
	if !got.ExportedAt.Equal(exportedAt) {
		t.Fatalf("unexpected exportedAt %v", got.ExportedAt)
	}
}

func TestFilenameAndFormat(t *testing.T) {
	if got := Filename("abc123", FormatCSV, at("2026-03-05T23:00:00-03:00")); got != "clicks-abc123-20260306.csv" {
		t.Errorf("unexpected filename %q", got)
	}

	if f, err := ParseFormat(""); err != nil || f != FormatCSV {
		t.Errorf("empty format = %q, %v", f, err)
	}
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("JSON format = %q, %v", f, err)
	}
	if _, err := ParseFormat("xlsx"); err != ErrInvalidFormat {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}
