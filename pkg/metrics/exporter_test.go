package metrics

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) countAtLeast(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level >= level {
			n++
		}
	}
	return n
}

func TestExporterStaysIdleWithoutConfig(t *testing.T) {
	a, _ := newTestAggregator()
	e := NewExporter(a, nil, ExporterOptions{}, slog.New(&recordingHandler{}))
	if e.Running() {
		t.Fatal("expected exporter idle without url and credential")
	}
	e.Stop()
	e.Stop()

	partial := NewExporter(a, nil, ExporterOptions{URL: "http://collector.local"}, slog.New(&recordingHandler{}))
	if partial.Running() {
		t.Fatal("expected exporter idle without credential")
	}
	partial.Stop()
}

func TestExporterPostsGaugeDocument(t *testing.T) {
	a, _ := newTestAggregator()
	a.RecordRequestStart("GET", "/x").Finish(200)
	a.RecordPurchase(true, 150, 2, 20)

	var gotAuth, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		gotContentType = req.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(req.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	handler := &recordingHandler{}
	e := NewExporter(a, GaugeEncoder{}, ExporterOptions{
		URL:        server.URL,
		Credential: "42:pizza-key",
		Source:     "slice-api",
		Interval:   time.Hour,
	}, slog.New(handler))
	defer e.Stop()

	e.ExportNow(context.Background())

	if gotAuth != "Bearer 42:pizza-key" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("unexpected content type %q", gotContentType)
	}
	points := decodeGaugeDocument(t, gotBody)
	if _, ok := findPoint(points, "purchase_latency", map[string]string{"status": "success"}); !ok {
		t.Fatal("expected purchase latency sample in export")
	}
	if handler.countAtLeast(slog.LevelWarn) != 0 {
		t.Fatal("expected no operator warnings on success")
	}
}

func TestExporterTicksUntilStopped(t *testing.T) {
	a, _ := newTestAggregator()
	hits := make(chan struct{}, 16)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	e := NewExporter(a, GaugeEncoder{}, ExporterOptions{
		URL:        server.URL,
		Credential: "42:pizza-key",
		Interval:   10 * time.Millisecond,
	}, slog.New(&recordingHandler{}))
	if !e.Running() {
		t.Fatal("expected exporter running")
	}

	select {
	case <-hits:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a periodic export")
	}

	e.Stop()
	e.Stop()
}

func TestExporterSwallowsTransportFailures(t *testing.T) {
	a, _ := newTestAggregator()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	handler := &recordingHandler{}
	e := NewExporter(a, GaugeEncoder{}, ExporterOptions{
		URL:        server.URL,
		Credential: "42:pizza-key",
		Interval:   time.Hour,
	}, slog.New(handler))
	defer e.Stop()

	e.ExportNow(context.Background())
	if got := handler.countAtLeast(slog.LevelWarn); got != 1 {
		t.Fatalf("expected 1 operator report, got %d", got)
	}

	e.ExportNow(context.Background())
	if got := handler.countAtLeast(slog.LevelWarn); got != 2 {
		t.Fatalf("expected 2 operator reports, got %d", got)
	}
}

func TestExporterSwallowsConnectionErrors(t *testing.T) {
	a, _ := newTestAggregator()
	handler := &recordingHandler{}
	e := NewExporter(a, GaugeEncoder{}, ExporterOptions{
		URL:        "http://127.0.0.1:1",
		Credential: "42:pizza-key",
		Interval:   time.Hour,
		Client:     &http.Client{Timeout: 200 * time.Millisecond},
	}, slog.New(handler))
	defer e.Stop()

	e.ExportNow(context.Background())
	if got := handler.countAtLeast(slog.LevelWarn); got != 1 {
		t.Fatalf("expected 1 operator report, got %d", got)
	}
}
