package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/netutil"

	"ipamcore/internal/auth"
)

const distDir = "./static/frontend/browser"

// maxConcurrentConns caps the listener so a flood of clients degrades into
// queued accepts instead of exhausting file descriptors.
const maxConcurrentConns = 512

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*") // Allow any origin
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Pass the request to the next handler
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func ServeFrontend(port int) error {
	if abs, err := filepath.Abs(distDir); err == nil {
		log.Debugf("➡️  Serving static from: %s", abs)
	} else {
		log.Warnf("couldn't resolve %q: %v", distDir, err)
	}

	mux := http.NewServeMux()
	fs := http.FileServer(http.Dir(distDir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fp := filepath.Join(distDir, filepath.Clean(r.URL.Path))
		if info, err := os.Stat(fp); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(distDir, "index.html"))
	})

	addr := fmt.Sprintf(":%d", port)
	log.Infof("Starting frontend static server on port %s", addr)
	return http.ListenAndServe(addr, mux)
}

func OpenRoutes(port int, serveStatic bool) error {

	router := http.NewServeMux()
	router.HandleFunc("POST /register", registerUser)
	router.HandleFunc("POST /login", loginUser)
	router.Handle("GET /checkLogin", auth.RequireAuth(http.HandlerFunc(checkLogin)))
	router.Handle("POST /changePassword", auth.RequireAuth(http.HandlerFunc(changePassword)))
	router.Handle("GET /user/role", auth.RequireAuth(http.HandlerFunc(getUserRole)))

	router.Handle("GET /namespaces", auth.RequireAuth(http.HandlerFunc(listNamespaces)))
	router.Handle("POST /namespaces", auth.IsAdmin(http.HandlerFunc(createNamespace)))
	router.Handle("GET /namespaces/{id}", auth.RequireAuth(http.HandlerFunc(getNamespace)))
	router.Handle("GET /namespaces/{id}/suggest-cidr", auth.RequireAuth(http.HandlerFunc(suggestCIDR)))
	router.Handle("GET /namespaces/{id}/export", auth.RequireAuth(http.HandlerFunc(exportNamespace)))
	router.Handle("POST /namespaces/{id}/import", auth.RequireAuth(http.HandlerFunc(importNamespacePlan)))

	router.Handle("GET /subnets", auth.RequireAuth(http.HandlerFunc(listSubnets)))
	router.Handle("POST /subnets", auth.RequireAuth(http.HandlerFunc(createSubnet)))
	router.Handle("GET /subnets/{id}", auth.RequireAuth(http.HandlerFunc(getSubnet)))
	router.Handle("DELETE /subnets/{id}", auth.IsAdmin(http.HandlerFunc(deleteSubnet)))
	router.Handle("POST /subnets/{id}/allocate", auth.RequireAuth(http.HandlerFunc(allocateAddress)))
	router.Handle("GET /subnets/{id}/ips", auth.RequireAuth(http.HandlerFunc(listSubnetIPs)))

	router.Handle("POST /ips/{id}/reserve", auth.RequireAuth(http.HandlerFunc(reserveAddress)))
	router.Handle("POST /ips/{id}/release", auth.RequireAuth(http.HandlerFunc(releaseAddress)))
	router.Handle("DELETE /ips/{id}", auth.RequireAuth(http.HandlerFunc(deleteAddress)))

	router.Handle("GET /devices", auth.RequireAuth(http.HandlerFunc(listDevices)))
	router.Handle("POST /devices", auth.IsAdmin(http.HandlerFunc(createDevice)))
	router.Handle("GET /devices/{id}", auth.RequireAuth(http.HandlerFunc(getDevice)))

	router.Handle("GET /getDashboardInfo", auth.RequireAuth(http.HandlerFunc(getDashboardInfo)))
	router.Handle("GET /global/settings", auth.IsAdmin(http.HandlerFunc(getGlobalSettings)))
	router.Handle("POST /saveSettings", auth.IsAdmin(http.HandlerFunc(saveSettings)))

	if gqlHandler, err := getGraphQLHandler(); err != nil {
		log.Error("GraphQL handler unavailable", "error", err)
	} else {
		router.Handle("POST /graphql", auth.RequireAuth(gqlHandler))
	}

	router.HandleFunc("GET /version", getVersion)
	router.HandleFunc("GET /health", healthCheck)

	// ---------------
	// FRONTEND
	// ---------------
	if serveStatic {
		fs := http.FileServer(http.Dir(distDir))

		router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				http.NotFound(w, r)
				return
			}
			path := filepath.Join(distDir, filepath.Clean(r.URL.Path))
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				fs.ServeHTTP(w, r)
				return
			}
			http.ServeFile(w, r, filepath.Join(distDir, "index.html"))
		})

		log.Debugf("Frontend assets served from %s on the same port", distDir)
	}

	log.Debug("Routes opened")

	server := http.Server{
		Handler: enableCORS(requestLogger(router)),
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("api listener failed: %w", err)
	}

	log.Infof("Starting ipamcore backend on port :%d", port)
	if err := server.Serve(netutil.LimitListener(listener, maxConcurrentConns)); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}
