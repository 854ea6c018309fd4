package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/adapter/http"
	kafkaadapter "github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/adapter/kafka"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/adapter/leaflet"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/adapter/sentinel"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/config"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/history"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/layers"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/observability"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/pipeline"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/registry"
)

func main() {
	// .env is a local-development convenience; absence is not an error.
	_ = godotenv.Load()

	since := flag.String("since", "", "override the discovery window start (YYYY-MM-DD)")
	forceRebuild := flag.Bool("force-rebuild", false, "reprocess dates already marked success")
	flag.Parse()

	if err := run(*since, *forceRebuild); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(since string, forceRebuild bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if since != "" {
		if _, err := time.Parse("2006-01-02", since); err != nil {
			return fmt.Errorf("invalid -since: %w", err)
		}
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	fields, err := registry.Load(cfg.FieldsFile, cfg.PolygonsFile, logger)
	if err != nil {
		return fmt.Errorf("load field registry: %w", err)
	}

	historyStore, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() {
		if err := historyStore.Close(); err != nil {
			logger.Error("history close error", "error", err)
		}
	}()

	layerStore, err := layers.NewStore(cfg.LayerCacheDir())
	if err != nil {
		return fmt.Errorf("open layer cache: %w", err)
	}

	styles, err := leaflet.LoadStyles(cfg.StyleFile)
	if err != nil {
		return fmt.Errorf("load styles: %w", err)
	}
	composer := leaflet.NewComposer(cfg.OutputDir, styles, cfg.PixelScale, cfg.CloudMax, logger)

	catalog := sentinel.NewClient(cfg.ProviderURL, cfg.ProviderToken, cfg.ProviderTimeout, metrics, logger)

	// Run-report events are feature-flagged via KAFKA_BROKERS.
	var notifier pipeline.RunNotifier
	if cfg.KafkaEnabled() {
		kn := kafkaadapter.NewNotifier(cfg, logger)
		defer func() {
			if err := kn.Close(); err != nil {
				logger.Error("kafka notifier close error", "error", err)
			}
		}()
		notifier = kn
		logger.Info("run-report publishing enabled", "topic", cfg.KafkaRunTopic)
	} else {
		logger.Info("run-report publishing disabled")
	}

	p := pipeline.New(fields, catalog, historyStore, layerStore, composer, notifier, metrics, logger, pipeline.Options{
		SeasonStart:  cfg.SeasonStart,
		Since:        since,
		CloudMax:     cfg.CloudMax,
		Scale:        cfg.PixelScale,
		Workers:      cfg.Workers,
		ForceRebuild: forceRebuild,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The ops server is optional; a plain cron invocation runs without it.
	if cfg.OpsAddr != "" {
		ready := httpadapter.ReadinessFunc(func(ctx context.Context) error {
			_, err := historyStore.ProcessedDates(ctx)
			return err
		})
		srv := httpadapter.NewServer(cfg.OpsAddr, ready, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ops server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("ops server shutdown error", "error", err)
			}
		}()
	}

	report, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		logger.Warn("run completed with failed dates, they will be retried",
			"failed", report.Failed)
	}
	return nil
}
