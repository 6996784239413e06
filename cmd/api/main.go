package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpx "github.com/splax/slice/internal/http"
	"github.com/splax/slice/pkg/config"
	"github.com/splax/slice/pkg/logger"
	"github.com/splax/slice/pkg/logship"
	"github.com/splax/slice/pkg/metrics"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.FromEnv("api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agg := metrics.New()

	var enc metrics.Encoder = metrics.GaugeEncoder{}
	if cfg.Telemetry.MetricsFormat == "line" {
		enc = metrics.LineEncoder{}
	}
	exporter := metrics.NewExporter(agg, enc, metrics.ExporterOptions{
		URL:        cfg.Telemetry.MetricsURL,
		Credential: cfg.Telemetry.MetricsCredential,
		Source:     cfg.Telemetry.Source,
		Interval:   cfg.Telemetry.ExportInterval,
		Client:     &http.Client{Timeout: cfg.Telemetry.HTTPTimeout},
	}, log)
	defer exporter.Stop()

	shipper := logship.New(logship.Options{
		URL:        cfg.Telemetry.LogsURL,
		Credential: cfg.Telemetry.LogsCredential,
		Source:     cfg.Telemetry.Source,
		Client:     &http.Client{Timeout: cfg.Telemetry.HTTPTimeout},
	}, log)
	defer shipper.Close()

	router := httpx.NewRouter(log, agg, shipper)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", "error", err)
	}
	exporter.Stop()
	exporter.ExportNow(shutdownCtx)
	shipper.Close()
}
