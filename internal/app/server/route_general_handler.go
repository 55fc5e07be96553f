package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"ipamcore/internal/config"
	"ipamcore/internal/database"
	"ipamcore/internal/support"
)

// dashboardGroup collapses concurrent dashboard requests into a single
// set of aggregation queries.
var dashboardGroup singleflight.Group

func getGlobalSettings(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(config.GetConfig())
}

func getDashboardInfo(w http.ResponseWriter, r *http.Request) {
	info, _, _ := dashboardGroup.Do("dashboard", func() (any, error) {
		return database.GetDashboardInfo(), nil
	})

	json.NewEncoder(w).Encode(info)
}

// healthCheck reports component health. Redis being down degrades the
// response but keeps the service usable, matching the lock and config
// sync fallbacks.
func healthCheck(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}
	healthy := true

	if database.DB == nil {
		components["database"] = "not configured"
		healthy = false
	} else if sqlDB, err := database.DB.DB(); err != nil {
		components["database"] = err.Error()
		healthy = false
	} else if err := sqlDB.Ping(); err != nil {
		components["database"] = err.Error()
		healthy = false
	}

	if client, err := support.GetRedisClient(); err != nil {
		components["redis"] = "unavailable"
	} else if err := client.Ping(r.Context()).Err(); err != nil {
		components["redis"] = "unavailable"
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
		log.Warn("Health check degraded", "components", components)
	} else if components["redis"] != "ok" {
		overall = "degraded"
	}

	writeJSON(w, status, map[string]any{
		"status":     overall,
		"components": components,
	})
}
