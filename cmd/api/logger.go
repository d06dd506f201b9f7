package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mandalnilabja/openai-relay/internal/config"
	"github.com/mandalnilabja/openai-relay/internal/version"
)

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func printStartupBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "OpenAI Relay %s\n", version.Version)
	fmt.Fprintln(w, "════════════════════════════════════════════════")
	fmt.Fprintf(w, "Proxy API:  http://localhost%s%s/\n", cfg.ServerPort, cfg.RoutePrefix)
	fmt.Fprintf(w, "Upstream:   %s\n", cfg.BaseURL)
	fmt.Fprintf(w, "API key:    %s\n", cfg.MaskedAPIKey())
	if cfg.RequestLogDB != "" {
		fmt.Fprintf(w, "Journal:    %s (retention %d days)\n", cfg.RequestLogDB, cfg.RequestLogRetention)
	}
	if cfg.EnableMetrics {
		fmt.Fprintf(w, "Metrics:    http://localhost%s/metrics\n", cfg.ServerPort)
	}
	fmt.Fprintln(w, "════════════════════════════════════════════════")
	fmt.Fprintf(w, "\n")
}
