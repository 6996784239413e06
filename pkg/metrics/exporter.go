package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultExportInterval = 10 * time.Second
	defaultHTTPTimeout    = 5 * time.Second
	maxErrorBodySize      = 4096
)

// ExporterOptions configures the periodic exporter. URL and Credential must
// both be set for the exporter to start; leaving either empty disables export
// without error. Credential is the collector key in `userId:apiKey` form and
// is sent verbatim as a bearer token.
type ExporterOptions struct {
	URL        string
	Credential string
	Source     string
	Interval   time.Duration
	Client     *http.Client
}

// Exporter periodically snapshots the aggregator, encodes the snapshot, and
// POSTs it to a remote collector. Transport failures are logged to the
// operator channel and swallowed; the next tick is the de facto retry.
type Exporter struct {
	agg        *Aggregator
	enc        Encoder
	url        string
	credential string
	source     string
	interval   time.Duration
	client     *http.Client
	logger     *slog.Logger

	running  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewExporter constructs an exporter and, when both URL and credential are
// configured, arms its timer immediately. Otherwise the exporter stays idle
// for its whole life and Stop is a no-op.
func NewExporter(agg *Aggregator, enc Encoder, opts ExporterOptions, logger *slog.Logger) *Exporter {
	if enc == nil {
		enc = GaugeEncoder{}
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultExportInterval
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if opts.Source == "" {
		opts.Source = "slice"
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Exporter{
		agg:        agg,
		enc:        enc,
		url:        strings.TrimSpace(opts.URL),
		credential: strings.TrimSpace(opts.Credential),
		source:     opts.Source,
		interval:   opts.Interval,
		client:     opts.Client,
		logger:     logger.With("component", "metrics_exporter"),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if e.url == "" || e.credential == "" {
		return e
	}
	if !strings.Contains(e.credential, ":") {
		e.logger.Warn("metrics credential has no user id prefix")
	}
	e.running = true
	go e.run()
	return e
}

// Running reports whether the export timer is armed.
func (e *Exporter) Running() bool { return e.running }

// Stop disarms the timer and waits for the loop to exit. It is idempotent and
// safe on an exporter that never started.
func (e *Exporter) Stop() {
	if !e.running {
		return
	}
	e.stopOnce.Do(func() {
		close(e.stop)
		<-e.done
	})
}

func (e *Exporter) run() {
	defer close(e.done)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.ExportNow(context.Background())
		}
	}
}

// ExportNow flushes one snapshot inline. Failures are reported to the
// operator channel, never to the caller.
func (e *Exporter) ExportNow(ctx context.Context) {
	if e.url == "" || e.credential == "" {
		return
	}
	if err := e.exportOnce(ctx); err != nil {
		e.logger.Warn("metrics export failed", "error", err, "url", e.url)
	}
}

func (e *Exporter) exportOnce(ctx context.Context) error {
	snap := e.agg.Snapshot()
	body, err := e.enc.Encode(snap, e.source)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build export request: %w", err)
	}
	req.Header.Set("Content-Type", e.enc.ContentType())
	req.Header.Set("Authorization", "Bearer "+e.credential)
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send export request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		limited := io.LimitReader(resp.Body, maxErrorBodySize)
		buf, _ := io.ReadAll(limited)
		summary := strings.TrimSpace(string(buf))
		if summary == "" {
			summary = resp.Status
		}
		return fmt.Errorf("collector rejected metrics: %s", summary)
	}
	return nil
}
