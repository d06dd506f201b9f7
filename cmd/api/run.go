package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mandalnilabja/openai-relay/internal/app"
	"github.com/mandalnilabja/openai-relay/internal/config"
	"github.com/mandalnilabja/openai-relay/internal/metrics"
	"github.com/mandalnilabja/openai-relay/internal/provider/openai"
	"github.com/mandalnilabja/openai-relay/internal/retention"
	"github.com/mandalnilabja/openai-relay/internal/storage"
	"github.com/mandalnilabja/openai-relay/internal/tokenizer"
	"github.com/mandalnilabja/openai-relay/internal/transport/http/handler"
	"github.com/mandalnilabja/openai-relay/internal/transport/http/handler/proxy"
	"github.com/mandalnilabja/openai-relay/internal/types"
)

// journalCacheEntries bounds the request journal read cache.
const journalCacheEntries = 10_000

// run wires every component from cfg and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	if err := retention.ValidateSchedule(cfg.RequestLogPruneSchedule); err != nil {
		return err
	}

	logger := setupLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	printStartupBanner(os.Stderr, cfg)

	if cfg.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; every proxied call will fail")
	}

	client := openai.New(openai.Options{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		BetaHeader: cfg.BetaHeader,
	})

	logger.Info("upstream configured", "provider", client.Name(), "base_url", client.BaseURL())

	p := proxy.New(client, logger, types.ChatDefaults{
		Model:     cfg.DefaultModel,
		MaxTokens: cfg.DefaultMaxTokens,
	})
	if cfg.CountTokens {
		p.Tokenizer = tokenizer.New()
	}

	var collector *metrics.Collector
	if cfg.EnableMetrics {
		collector = metrics.NewCollector()
		p.Metrics = collector
	}

	if cfg.RequestLogDB != "" {
		journal, err := openJournal(cfg.RequestLogDB)
		if err != nil {
			return err
		}
		defer func() {
			p.Shutdown()
			if err := journal.Close(); err != nil {
				logger.Warn("close journal", "error", err)
			}
		}()
		p.Storage = journal

		if collector != nil {
			collector.RegisterCacheStats("journal", func() (uint64, uint64) {
				s := journal.Stats()
				return s.Hits, s.Misses
			})
		}

		pruner := retention.NewPruner(journal, retention.Config{
			RetentionDays: cfg.RequestLogRetention,
			PruneSchedule: cfg.RequestLogPruneSchedule,
		}, logger)
		scheduler := retention.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	router := app.NewRouter(handler.NewRepo(p), app.RouterOptions{
		RoutePrefix: cfg.RoutePrefix,
		Logger:      logger,
		Metrics:     collector,
	})
	srv := app.NewServer(cfg.ServerPort, router, logger)

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// openJournal opens the SQLite journal behind a read cache, creating the
// parent directory of a file path when needed.
func openJournal(path string) (*storage.Cached, error) {
	if path != storage.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("open request journal: %w", err)
	}
	cached, err := storage.NewCached(db, journalCacheEntries)
	if err != nil {
		db.Close()
		return nil, err
	}
	return cached, nil
}
