package bootstrap

import (
	"context"

	"github.com/charmbracelet/log"

	"ipamcore/internal/config"
	"ipamcore/internal/database"
	"ipamcore/internal/jobs/maintenance"
	jobruntime "ipamcore/internal/jobs/runtime"
	"ipamcore/internal/support"
)

// Setup loads settings, prepares the database and launches the
// background routines.
func Setup() {
	config.ReadSettings()

	// Enabling sync after the local settings load keeps a fresh install
	// from publishing an empty configuration.
	if client, err := support.GetRedisClient(); err == nil {
		config.EnableRedisSynchronization(context.Background(), client)
	}

	seed := config.GetConfig().SeedDemoData && !config.InProductionMode

	if _, err := database.SetupDB(database.WithSeedDefaults(seed)); err != nil {
		log.Fatalf("failed to set up database: %v", err)
	}
	config.SetBetweenTime()

	go jobruntime.StartUtilizationSnapshotRoutine(context.Background())
	go maintenance.StartSnapshotRetentionRoutine(context.Background())
}
