package app

import (
	"context"
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"ipamcore/internal/app/bootstrap"
	"ipamcore/internal/app/server"
	"ipamcore/internal/config"
	"ipamcore/internal/jobs/runtime"
	"ipamcore/internal/support"
)

const (
	defaultBackendPort  = 8080
	defaultFrontendPort = 8081
)

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found. Falling back to system environment variables.")
	}

	log.SetLevel(log.DebugLevel)

	backendPortFlag := flag.Int("backend-port", defaultBackendPort, "Port for API server")
	frontendPortFlag := flag.Int("frontend-port", defaultFrontendPort, "Port for frontend static server")
	serveFEFlag := flag.Bool("serve-frontend", true, "Serve the frontend bundle on the API port")
	productionFlag := flag.Bool("production", false, "Run in production mode")
	flag.Parse()

	config.SetProductionMode(*productionFlag)

	backendPort := resolvePort("BACKEND_PORT", "backend-port", *backendPortFlag)
	frontendPort := resolvePort("FRONTEND_PORT", "frontend-port", *frontendPortFlag)

	serveFrontend := *serveFEFlag
	if v := os.Getenv("SERVE_FRONTEND"); strings.EqualFold(v, "false") {
		serveFrontend = false
	}

	// Redis is optional: without it the instance runs alone, writes rely
	// on the database's unique indexes and config stays local.
	if redisClient, err := support.GetRedisClient(); err != nil {
		log.Warn("Redis unavailable, running single-instance", "error", err)
	} else {
		heartbeatCancel := runtime.LaunchInstanceHeartbeat(context.Background(), redisClient)
		defer heartbeatCancel()
	}

	bootstrap.Setup()

	if !serveFrontend {
		go func() {
			if err := server.ServeFrontend(frontendPort); err != nil {
				log.Error("frontend server terminated", "error", err)
			}
		}()
	}

	return server.OpenRoutes(backendPort, serveFrontend)
}

func resolvePort(primaryEnv, legacyEnv string, fallback int) int {
	if port := readPort(primaryEnv); port != 0 {
		return port
	}
	if port := readPort(legacyEnv); port != 0 {
		return port
	}
	return fallback
}

func readPort(envKey string) int {
	raw := os.Getenv(envKey)
	if raw == "" {
		return 0
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port == 0 {
		log.Warn("invalid port override", "env", envKey, "value", raw)
		return 0
	}
	return port
}
