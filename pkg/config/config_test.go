package config

import (
	"testing"
	"time"
)

func TestGetString(t *testing.T) {
	t.Setenv("SLICE_TEST_STRING", "value")
	if got := GetString("SLICE_TEST_STRING", "fallback"); got != "value" {
		t.Fatalf("expected value, got %s", got)
	}
	if got := GetString("SLICE_TEST_STRING_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %s", got)
	}
}

func TestGetIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SLICE_TEST_INT", "not-a-number")
	if got := GetInt("SLICE_TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	t.Setenv("SLICE_TEST_INT", "42")
	if got := GetInt("SLICE_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestGetSeconds(t *testing.T) {
	t.Setenv("SLICE_TEST_SECONDS", "30")
	if got := GetSeconds("SLICE_TEST_SECONDS", 10); got != 30*time.Second {
		t.Fatalf("expected 30s, got %v", got)
	}
	if got := GetSeconds("SLICE_TEST_SECONDS_MISSING", 10); got != 10*time.Second {
		t.Fatalf("expected 10s fallback, got %v", got)
	}
}

func TestLoadTelemetryConfigDefaults(t *testing.T) {
	cfg := LoadTelemetryConfig()
	if cfg.Source != "slice-api" {
		t.Fatalf("expected default source, got %s", cfg.Source)
	}
	if cfg.MetricsURL != "" || cfg.LogsURL != "" {
		t.Fatal("expected export disabled by default")
	}
	if cfg.ExportInterval != 10*time.Second {
		t.Fatalf("expected 10s interval, got %v", cfg.ExportInterval)
	}
	if cfg.MetricsFormat != "gauge" {
		t.Fatalf("expected gauge format, got %s", cfg.MetricsFormat)
	}
}

func TestLoadTelemetryConfigOverrides(t *testing.T) {
	t.Setenv("METRICS_URL", "https://collector.example/v1/metrics")
	t.Setenv("METRICS_API_KEY", "42:key")
	t.Setenv("METRICS_EXPORT_SECONDS", "3")
	t.Setenv("METRICS_FORMAT", "line")

	cfg := LoadTelemetryConfig()
	if cfg.MetricsURL != "https://collector.example/v1/metrics" || cfg.MetricsCredential != "42:key" {
		t.Fatalf("unexpected metrics config %+v", cfg)
	}
	if cfg.ExportInterval != 3*time.Second {
		t.Fatalf("expected 3s interval, got %v", cfg.ExportInterval)
	}
	if cfg.MetricsFormat != "line" {
		t.Fatalf("expected line format, got %s", cfg.MetricsFormat)
	}
}
