package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/events"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/telemetry"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"
)

type mockWriter struct {
	writeFn func(ctx context.Context, msgs ...kafka.Message) error
	msgs    []kafka.Message
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.msgs = append(m.msgs, msgs...)
	if m.writeFn != nil {
		return m.writeFn(ctx, msgs...)
	}
	return nil
}

func (m *mockWriter) Close() error { return nil }

func testClick() (*domain.ShortURL, *domain.ClickEvent) {
	link := &domain.ShortURL{ID: "link-1", Code: "abc123"}
	event := &domain.ClickEvent{
		ID:          "evt-1",
		ShortURLID:  "link-1",
		Timestamp:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		IPHash:      "abcdef0123456789",
		Fingerprint: "0123456789abcdef0123456789abcdef",
		Country:     "BR",
		DeviceType:  domain.DeviceMobile,
		Browser:     "Chrome",
		SourceType:  domain.SourceQR,
	}
	return link, event
}

func TestPublishClick(t *testing.T) {
	telemetry.SetPropagator()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	w := &mockWriter{}
	p := newPublisher(w, "clicks.recorded", time.Second)
	link, event := testClick()

	if err := p.PublishClick(ctx, link, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}

	msg := w.msgs[0]
	if string(msg.Key) != "abc123" {
		t.Errorf("key = %q, want abc123", msg.Key)
	}
	if !msg.Time.Equal(event.Timestamp) {
		t.Errorf("time = %v", msg.Time)
	}

	var payload events.ClickRecorded
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.EventID != "evt-1" || payload.Code != "abc123" || payload.Type != events.ClickRecordedType {
		t.Errorf("payload = %+v", payload)
	}
	if payload.Country != "BR" || payload.DeviceType != "mobile" || payload.SourceType != "qr" {
		t.Errorf("enrichment missing: %+v", payload)
	}
	if strings.Contains(string(msg.Value), event.IPHash) || strings.Contains(string(msg.Value), event.Fingerprint) {
		t.Error("payload must not carry ipHash or fingerprint")
	}

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["event-type"] != events.ClickRecordedType {
		t.Errorf("event-type header = %q", headers["event-type"])
	}
	if !strings.Contains(headers["traceparent"], "4bf92f3577b34da6a3ce929d0e0e4736") {
		t.Errorf("traceparent header = %q", headers["traceparent"])
	}
}

func TestPublishClick_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	w := &mockWriter{writeFn: func(ctx context.Context, _ ...kafka.Message) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("write context should carry a deadline")
		}
		return boom
	}}
	p := newPublisher(w, "clicks.recorded", 0)
	link, event := testClick()

	if err := p.PublishClick(context.Background(), link, event); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped broker error", err)
	}
	if p.writeTimeout != defaultWriteTimeout {
		t.Errorf("writeTimeout = %v, want default", p.writeTimeout)
	}
}
