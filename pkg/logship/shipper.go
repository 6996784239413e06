package logship

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/splax/slice/pkg/sanitize"
)

const (
	defaultHTTPTimeout = 5 * time.Second
	maxErrorBodySize   = 4096
)

// Options configures the log shipper. Credential is `userId:apiKey`, split on
// its first colon for the bearer header. Leaving URL or Credential empty
// disables shipping without error.
type Options struct {
	URL        string
	Credential string
	Source     string
	Client     *http.Client
}

// Shipper pushes structured log events to a Loki-compatible collector. Every
// push sanitizes its detail payload first. All failures are reported once to
// the operator logger; Send never returns an error and never blocks the
// calling request path.
type Shipper struct {
	url        string
	credential string
	source     string
	client     *http.Client
	logger     *slog.Logger
	now        func() time.Time
	wg         sync.WaitGroup
}

// New constructs a Shipper. A nil logger falls back to slog.Default.
func New(opts Options, logger *slog.Logger) *Shipper {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if opts.Source == "" {
		opts.Source = "slice"
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Shipper{
		url:        strings.TrimSpace(opts.URL),
		credential: strings.TrimSpace(opts.Credential),
		source:     opts.Source,
		client:     opts.Client,
		logger:     logger.With("component", "log_shipper"),
		now:        time.Now,
	}
	if s.Enabled() && !strings.Contains(s.credential, ":") {
		s.logger.Warn("log credential has no user id prefix")
	}
	return s
}

// Enabled reports whether a push endpoint is configured.
func (s *Shipper) Enabled() bool {
	return s.url != "" && s.credential != ""
}

// Close waits for in-flight pushes to finish.
func (s *Shipper) Close() {
	s.wg.Wait()
}

// Send sanitizes details, wraps them with the message as one log line, and
// pushes it with {source, level, type} stream labels. The transport runs on a
// background goroutine; failures go to the operator channel only.
func (s *Shipper) Send(level, typ, message string, details map[string]any) {
	if !s.Enabled() {
		return
	}
	line := map[string]any{"message": message}
	if len(details) > 0 {
		cleaned, err := sanitize.Sanitize(details)
		if err != nil {
			s.logger.Warn("log details dropped", "error", err, "type", typ)
		} else if cleanedMap, ok := cleaned.(map[string]any); ok {
			for key, value := range cleanedMap {
				line[key] = value
			}
		}
	}
	lineJSON, err := json.Marshal(line)
	if err != nil {
		s.logger.Warn("log line not serializable", "error", err, "type", typ)
		return
	}
	payload := map[string]any{
		"streams": []map[string]any{{
			"stream": map[string]string{
				"source": s.source,
				"level":  level,
				"type":   typ,
			},
			"values": [][]string{{
				strconv.FormatInt(s.now().UnixNano(), 10),
				string(lineJSON),
			}},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("log push not serializable", "error", err, "type", typ)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.push(context.Background(), body); err != nil {
			s.logger.Warn("log push failed", "error", err, "type", typ)
		}
	}()
}

// SendQuery reports an executed database query.
func (s *Shipper) SendQuery(sql string, params any) {
	s.Send("info", "db", "query executed", map[string]any{
		"sql":    sql,
		"params": params,
	})
}

// SendException reports an unhandled failure with its stack and context.
func (s *Shipper) SendException(message, stack string, extra map[string]any) {
	details := map[string]any{"stack": stack}
	for key, value := range extra {
		details[key] = value
	}
	s.Send("error", "exception", message, details)
}

func (s *Shipper) push(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build log push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.credential)
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send log push request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		limited := io.LimitReader(resp.Body, maxErrorBodySize)
		buf, _ := io.ReadAll(limited)
		summary := strings.TrimSpace(string(buf))
		if summary == "" {
			summary = resp.Status
		}
		return fmt.Errorf("collector rejected logs: %s", summary)
	}
	return nil
}
