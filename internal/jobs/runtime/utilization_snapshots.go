package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"ipamcore/internal/config"
	"ipamcore/internal/database"
	"ipamcore/internal/support"
)

const utilizationSnapshotLockKey = "ipamcore:leader:utilization_snapshots"

// StartUtilizationSnapshotRoutine records per-subnet utilization on the
// configured interval. Only the leader instance writes snapshots so a
// multi-instance deployment produces one series, not one per replica.
func StartUtilizationSnapshotRoutine(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	err := support.RunWithLeader(ctx, utilizationSnapshotLockKey, support.DefaultLeadershipTTL, func(leaderCtx context.Context) {
		runUtilizationSnapshotLoop(leaderCtx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Utilization snapshot routine stopped", "error", err)
	}
}

func runUtilizationSnapshotLoop(ctx context.Context) {
	updates := config.SnapshotIntervalUpdates()
	interval := config.GetSnapshotInterval()

	runUtilizationSnapshotsOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case next := <-updates:
			if next <= 0 || next == interval {
				continue
			}
			interval = next
			ticker.Reset(interval)
			log.Info("Utilization snapshot interval updated", "interval", interval)
		case <-ticker.C:
			runUtilizationSnapshotsOnce(ctx)
		}
	}
}

func runUtilizationSnapshotsOnce(ctx context.Context) {
	if !config.GetConfig().Snapshots.Enabled {
		log.Debug("Utilization snapshots disabled, skipping run")
		return
	}

	start := time.Now()
	if err := database.SaveUtilizationSnapshots(ctx); err != nil {
		log.Error("Failed to persist utilization snapshots", "error", err)
		return
	}

	if err := config.MarkSnapshotRun(start); err != nil {
		log.Warn("Failed to record snapshot run time", "error", err)
	}

	log.Info("Utilization snapshots stored", "duration", time.Since(start))
}
