package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"ipamcore/internal/database"
	"ipamcore/internal/support"
)

const (
	envPruneInterval        = "SNAPSHOT_PRUNE_INTERVAL"
	envPruneIntervalMinutes = "SNAPSHOT_PRUNE_INTERVAL_MINUTES"
	envRetentionDays        = "SNAPSHOT_RETENTION_DAYS"

	defaultPruneMinutes  = 1440
	defaultRetentionDays = 90

	snapshotRetentionLockKey = "ipamcore:leader:snapshot_retention"
)

// StartSnapshotRetentionRoutine prunes aged utilization history on the
// leader instance so the snapshots table stays bounded.
func StartSnapshotRetentionRoutine(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	err := support.RunWithLeader(ctx, snapshotRetentionLockKey, support.DefaultLeadershipTTL, func(leaderCtx context.Context) {
		runSnapshotRetentionLoop(leaderCtx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Snapshot retention routine stopped", "error", err)
	}
}

func runSnapshotRetentionLoop(ctx context.Context) {
	interval := resolvePruneInterval()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runSnapshotPrune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runSnapshotPrune(ctx)
		}
	}
}

func resolvePruneInterval() time.Duration {
	if raw := support.GetEnv(envPruneInterval, ""); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			return parsed
		}
		log.Warn("Invalid SNAPSHOT_PRUNE_INTERVAL value, falling back to minutes env", "value", raw)
	}

	minutes := support.GetEnvInt(envPruneIntervalMinutes, defaultPruneMinutes)
	if minutes <= 0 {
		minutes = defaultPruneMinutes
	}

	return time.Duration(minutes) * time.Minute
}

func retentionWindow() time.Duration {
	days := support.GetEnvInt(envRetentionDays, defaultRetentionDays)
	if days <= 0 {
		days = defaultRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func runSnapshotPrune(ctx context.Context) {
	start := time.Now()
	cutoff := start.Add(-retentionWindow())

	removed, err := database.PruneSnapshotsBefore(ctx, cutoff)
	if err != nil {
		log.Error("Failed to prune utilization snapshots", "error", err)
		return
	}

	if removed == 0 {
		return
	}

	log.Info("Snapshot retention completed",
		"removed", removed,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration", time.Since(start),
	)
}
