package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_SendsQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fields") != "country" || r.Header.Get("Accept") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Options{Name: "test"})
	resp, err := c.Get(context.Background(), srv.URL,
		map[string]string{"fields": "country"},
		map[string]string{"Accept": "application/json"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestClient_UpstreamFailuresOpenBreaker(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"server error", http.StatusInternalServerError},
		{"throttled", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(Options{Name: "test", MaxFailures: 2, OpenTimeout: time.Minute})
			ctx := context.Background()

			for i := 0; i < 10; i++ {
				_, err := c.Get(ctx, srv.URL, nil, nil)
				if err == nil {
					t.Fatalf("call %d: expected error", i)
				}
				if i >= 2 && !errors.Is(err, ErrCircuitOpen) {
					t.Fatalf("call %d: expected ErrCircuitOpen, got %v", i, err)
				}
			}
			if got := calls.Load(); got != 2 {
				t.Fatalf("expected the open breaker to stop upstream calls after 2, got %d", got)
			}
			if c.cb.State() != StateOpen {
				t.Fatalf("expected open breaker, got %s", c.cb.State())
			}
		})
	}
}

func TestClient_ClientErrorsPassThrough(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Options{Name: "test", MaxFailures: 1})
	for i := 0; i < 3; i++ {
		resp, err := c.Get(context.Background(), srv.URL, nil, nil)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	}

	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if c.cb.State() != StateClosed {
		t.Fatalf("404 should not trip the breaker, got %s", c.cb.State())
	}
}
