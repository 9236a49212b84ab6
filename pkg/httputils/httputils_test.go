package httputils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/constants"
)

func TestWriteAPIError_KeepsCorrelationID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/analytics/abc", nil)
	req.Header.Set(CorrelationIDHeader, "corr-1")
	rec := httptest.NewRecorder()

	WriteAPIError(rec, req, constants.ErrLinkInactive)

	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410, got %d", rec.Code)
	}
	if got := rec.Header().Get(CorrelationIDHeader); got != "corr-1" {
		t.Fatalf("expected correlation id to be echoed, got %q", got)
	}

	var body APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != constants.CodeLinkInactive {
		t.Fatalf("expected %s, got %s", constants.CodeLinkInactive, body.Error)
	}
}

func TestWriteRateLimited(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/track", nil)
	rec := httptest.NewRecorder()

	WriteRateLimited(rec, req, 42)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("expected Retry-After 42, got %q", got)
	}

	var body APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RetryAfter != 42 {
		t.Fatalf("expected retryAfter 42, got %d", body.RetryAfter)
	}
	if body.CorrelationId == "" {
		t.Fatal("expected a generated correlation id")
	}
}

func TestWriteRateLimitHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	reset := time.Unix(1700000060, 0)

	WriteRateLimitHeaders(rec, RateLimitInfo{Limit: 100, Remaining: 7, Reset: reset})

	want := map[string]string{
		RateLimitLimitHeader:     "100",
		RateLimitRemainingHeader: "7",
		RateLimitResetHeader:     "1700000060",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestWriteAttachment(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/analytics/abc/export", nil)
	rec := httptest.NewRecorder()

	WriteAttachment(rec, req, "clicks-abc-20260101.csv", "text/csv; charset=utf-8", []byte("a,b\n"))

	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="clicks-abc-20260101.csv"` {
		t.Fatalf("unexpected Content-Disposition %q", got)
	}
	if rec.Body.String() != "a,b\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
