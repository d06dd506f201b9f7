// Package retention removes old request journal entries, either on demand
// or on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Journal is the part of the request journal the pruner needs.
type Journal interface {
	DeleteRequestLogs(olderThan time.Time) (int64, error)
}

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to keep entries. 0 keeps them forever.
	RetentionDays int

	// PruneSchedule is a cron expression, e.g. "@daily" or "0 3 * * *".
	// Empty disables scheduled pruning.
	PruneSchedule string
}

// Pruner enforces the retention window on a journal.
type Pruner struct {
	journal Journal
	config  Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewPruner creates a pruner. A nil logger uses slog.Default().
func NewPruner(journal Journal, config Config, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		journal: journal,
		config:  config,
		logger:  logger.With("component", "retention"),
		now:     time.Now,
	}
}

// Prune deletes entries older than the retention window and returns how
// many were removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
	deleted, err := p.journal.DeleteRequestLogs(cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune request logs older than %d days: %w", p.config.RetentionDays, err)
	}

	if deleted > 0 {
		p.logger.Info("pruned request logs",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
		)
	} else {
		p.logger.Debug("no request logs pruned", "cutoff_time", cutoff)
	}
	return deleted, nil
}
