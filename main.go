package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/camden-git/shastadb/config"
	"github.com/camden-git/shastadb/database"
	"github.com/camden-git/shastadb/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	dbDir := filepath.Dir(cfg.DatabasePath)
	log.Printf("Ensuring storage directory exists: %s", dbDir)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Fatalf("FATAL: Failed to create storage directory %s: %v", dbDir, err)
	}

	db, err := database.Open(cfg.DatabasePath, database.Options{
		LogLevel:     cfg.GormLogLevel(),
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		BusyTimeout:  time.Duration(cfg.DBBusyTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to open store: %v", err)
	}
	defer database.Close(db)

	// nothing may read or write the store before this returns
	if err := database.EnsureSchemaCurrent(db); err != nil {
		log.Fatalf("FATAL: Store schema could not be brought current: %v", err)
	}

	if cfg.InitialRootPath != "" {
		root, created, err := repository.NewRootRepository(db).EnsureRoot(cfg.InitialRootName, cfg.InitialRootPath)
		if err != nil {
			log.Fatalf("FATAL: Failed to register initial root %s: %v", cfg.InitialRootName, err)
		}
		if created {
			log.Printf("Registered initial root %s at %s", root.Name, root.Path)
		}
	}

	log.Printf("Using database: %s", cfg.DatabasePath)

	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		MaxAge:         300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(corsHandler.Handler)

	r.Get("/healthz", healthHandler(db))

	serverAddr := ":" + cfg.Port
	fmt.Printf("Server starting on http://localhost:%s\n", cfg.Port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

// healthHandler reports whether the store answers and which schema it holds.
func healthHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		fingerprint, err := database.SchemaFingerprint(db.WithContext(r.Context()))
		if err != nil {
			log.Printf("Health check failed: %v", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
			"schema": fingerprint,
		})
	}
}
