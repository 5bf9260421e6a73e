package offline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grape/internal/testutils"
)

func TestProbe_Reachable(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"ok", http.StatusOK},
		{"not found still reachable", http.StatusNotFound},
		{"server error still reachable", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			probe := NewProbe(nil, time.Second, &testutils.RecordingLogger{})
			if !probe.Reachable(context.Background(), server.URL) {
				t.Errorf("Expected %s to be reachable", server.URL)
			}
		})
	}
}

func TestProbe_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	logger := &testutils.RecordingLogger{}
	probe := NewProbe(nil, time.Second, logger)
	if probe.Reachable(context.Background(), url) {
		t.Error("Expected closed server to be unreachable")
	}
	if !logger.Contains("DEBUG", "unreachable") {
		t.Error("Expected unreachable host to be logged")
	}
}

func TestProbe_UsesTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("Unexpected user agent %q", r.Header.Get("User-Agent"))
		}
	}))
	defer server.Close()

	rt := &countingTransport{next: http.DefaultTransport}
	probe := NewProbe(rt, time.Second, &testutils.RecordingLogger{})
	if !probe.Reachable(context.Background(), server.URL) {
		t.Fatal("Expected server to be reachable")
	}
	if rt.calls == 0 {
		t.Error("Expected the configured transport to be used")
	}
}

func TestProbe_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	probe := NewProbe(nil, time.Second, &testutils.RecordingLogger{})
	if probe.Reachable(ctx, "http://127.0.0.1:1") {
		t.Error("Expected cancelled probe to report offline")
	}
}

func TestAlways(t *testing.T) {
	if !Always(true).Reachable(context.Background(), "x") || Always(false).Reachable(context.Background(), "x") {
		t.Error("Always should return its own value")
	}
}

type countingTransport struct {
	next  http.RoundTripper
	calls int
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls++
	return c.next.RoundTrip(r)
}
