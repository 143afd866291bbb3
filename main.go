package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tadawulboard/src/client"
	"github.com/username/tadawulboard/src/config"
	"github.com/username/tadawulboard/src/database"
	"github.com/username/tadawulboard/src/handlers"
	"github.com/username/tadawulboard/src/logger"
	"github.com/username/tadawulboard/src/services"
	"github.com/username/tadawulboard/src/sources"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Tadawulboard dashboard server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing view cache...")
	viewCache := cache.New(config.Cfg.TableCacheTTL, config.Cfg.CacheCleanup)
	logger.L.Info("View cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	backendClient := client.New(config.Cfg.BackendBaseURL, config.Cfg.HTTPClientTimeout, config.Cfg.MaxResponseBytes)
	ownershipSource := sources.NewOwnershipSource(config.Cfg.OwnershipDataURL, config.Cfg.HTTPClientTimeout, config.Cfg.MaxResponseBytes)
	earningsSource := sources.NewEarningsSource(backendClient)

	dashboardService := services.NewDashboardService(ownershipSource, earningsSource, backendClient, viewCache)
	uploadService := services.NewUploadService(backendClient)

	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	uploadHandler := handlers.NewUploadHandler(uploadService)

	logger.L.Info("Loading initial table...")
	initCtx, cancel := context.WithTimeout(context.Background(), config.Cfg.HTTPClientTimeout)
	if rows, err := dashboardService.RefreshTable(initCtx); err != nil {
		logger.L.Warn("Initial table load failed; starting with an empty table", "error", err)
	} else {
		logger.L.Info("Initial table loaded", "rows", rows)
	}
	cancel()

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("GET /api/table", dashboardHandler.HandleGetTable)
	apiRouter.HandleFunc("POST /api/corrections", dashboardHandler.HandleSubmitCorrection)
	apiRouter.HandleFunc("GET /api/evidence/{symbol}", dashboardHandler.HandleGetEvidence)
	apiRouter.HandleFunc("POST /api/refresh", dashboardHandler.HandleRefresh)
	apiRouter.HandleFunc("GET /api/table/export", dashboardHandler.HandleExportTable)

	apiRouter.HandleFunc("POST /api/uploads", uploadHandler.HandleUploadBatch)
	apiRouter.HandleFunc("GET /api/extractions", uploadHandler.HandleGetExtractions)
	apiRouter.HandleFunc("GET /api/extractions/grid", uploadHandler.HandleGetExtractionGrid)
	apiRouter.HandleFunc("POST /api/extractions/corrections", uploadHandler.HandleCorrectExtraction)
	apiRouter.HandleFunc("POST /api/extractions/clear", uploadHandler.HandleClearExtractions)
	apiRouter.HandleFunc("GET /api/export", uploadHandler.HandleExport)
	apiRouter.HandleFunc("GET /api/archive/snapshots", uploadHandler.HandleGetSnapshots)
	apiRouter.HandleFunc("GET /api/archive/exports", uploadHandler.HandleGetUserExports)
	apiRouter.HandleFunc("DELETE /api/archive/exports/{filename}", uploadHandler.HandleDeleteUserExport)

	apiRouter.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "healthy", "backend": "ok"}
		if err := backendClient.Health(r.Context()); err != nil {
			status["backend"] = "unreachable"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Tadawulboard is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := handlers.EnableCORS(config.Cfg.AllowedOrigin)(handlers.RateLimitMiddleware(limiter)(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
