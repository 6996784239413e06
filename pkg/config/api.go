package config

import "time"

// TelemetryConfig holds runtime configuration for the telemetry core.
// Leaving a URL or credential empty disables the corresponding exporter.
type TelemetryConfig struct {
	Source            string
	MetricsURL        string
	MetricsCredential string
	MetricsFormat     string
	LogsURL           string
	LogsCredential    string
	ExportInterval    time.Duration
	HTTPTimeout       time.Duration
}

// APIConfig holds runtime configuration for the storefront API service.
type APIConfig struct {
	Environment string
	Addr        string
	Telemetry   TelemetryConfig
}

// LoadTelemetryConfig constructs a TelemetryConfig from environment variables.
func LoadTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Source:            GetString("TELEMETRY_SOURCE", "slice-api"),
		MetricsURL:        GetString("METRICS_URL", ""),
		MetricsCredential: GetString("METRICS_API_KEY", ""),
		MetricsFormat:     GetString("METRICS_FORMAT", "gauge"),
		LogsURL:           GetString("LOGS_URL", ""),
		LogsCredential:    GetString("LOGS_API_KEY", ""),
		ExportInterval:    GetSeconds("METRICS_EXPORT_SECONDS", 10),
		HTTPTimeout:       GetSeconds("TELEMETRY_HTTP_TIMEOUT_SECONDS", 5),
	}
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment: GetString("APP_ENV", "development"),
		Addr:        GetString("API_ADDR", ":4000"),
		Telemetry:   LoadTelemetryConfig(),
	}
}
