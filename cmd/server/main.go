package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dbca-wa/wastd-sub002/internal/config"
	"github.com/dbca-wa/wastd-sub002/internal/db"
	"github.com/dbca-wa/wastd-sub002/internal/export"
	"github.com/dbca-wa/wastd-sub002/internal/importer"
	"github.com/dbca-wa/wastd-sub002/internal/middleware"
	"github.com/dbca-wa/wastd-sub002/internal/repository"
	"github.com/dbca-wa/wastd-sub002/internal/species"

	"github.com/rs/cors"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database, cfg.Server.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	speciesRepo := repository.NewSpeciesRepository(conn.Pool)
	strandingRepo := repository.NewStrandingRepository(conn)
	importLogRepo := repository.NewImportLogRepository(conn.Pool)

	// Create services
	importService := importer.NewService(
		speciesRepo,
		strandingRepo,
		importLogRepo,
		importer.WithReportDirectory(cfg.Server.ReportDir),
	)
	exportService := export.NewService(strandingRepo)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	wrap := func(h http.Handler) http.Handler {
		return corsHandler.Handler(middleware.LoggingMiddleware(middleware.RolesMiddleware(h)))
	}

	importHandler := importer.NewHTTPHandler(importService, importLogRepo)
	mux := http.NewServeMux()
	mux.Handle("/imports/strandings", wrap(importHandler))
	mux.Handle("/imports/files/", wrap(importHandler))
	mux.Handle("/imports/logs", wrap(importHandler))
	mux.Handle("/exports/strandings", wrap(export.NewHTTPHandler(exportService)))
	mux.Handle("/species", wrap(species.NewHTTPHandler(speciesRepo)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting strandings server on %s", cfg.Server.Addr)
		log.Printf("Import endpoint available at POST %s/imports/strandings", cfg.Server.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
