package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goa-eco-guard/eco-guard/internal/api"
	"github.com/goa-eco-guard/eco-guard/internal/config"
	"github.com/goa-eco-guard/eco-guard/internal/missions"
	"github.com/goa-eco-guard/eco-guard/internal/notifications"
	"github.com/goa-eco-guard/eco-guard/internal/reports"
	"github.com/goa-eco-guard/eco-guard/internal/scheduler"
	"github.com/goa-eco-guard/eco-guard/internal/sightings"
	"github.com/goa-eco-guard/eco-guard/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Goa Eco-Guard")

	// Initialize database
	db, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Put the active report list behind Redis when configured
	var reportStore storage.ReportStore = db
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			logrus.Warnf("Redis unavailable at %s, serving reports without cache: %v", cfg.RedisAddr, err)
		} else {
			defer client.Close()
			reportStore = storage.NewCachedReportStore(db, client, cfg.CacheTTL)
			logrus.Infof("Caching active reports in Redis at %s", cfg.RedisAddr)
		}
	}

	// Initialize media storage
	media, mediaDir, err := newMediaStore(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize media storage: %v", err)
	}

	// Initialize notification services
	notificationService := notifications.NewService(cfg)
	if !cfg.EmailEnabled() {
		logrus.Warn("SMTP_HOST not set, mission reminders will fail to send")
	}

	// Initialize domain services
	reportService := reports.NewService(cfg, reportStore, media, notificationService)
	sightingService := sightings.NewService(db, media)
	missionService := missions.NewService(cfg, db, notificationService)

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg, missionService)

	// Start scheduler
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	router := api.NewServer(cfg, reportService, sightingService, missionService, mediaDir).Router()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// newMediaStore prefers Azure Blob Storage and falls back to a local directory.
// The returned directory is non-empty only for the local store.
func newMediaStore(cfg *config.Config) (storage.MediaStore, string, error) {
	if cfg.StorageAccount != "" {
		store, err := storage.NewAzureMediaStore(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	}

	store, err := storage.NewLocalMediaStore(cfg.MediaDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, "", err
	}
	logrus.Infof("AZURE_STORAGE_ACCOUNT not set, storing images in %s", store.Dir())
	return store, store.Dir(), nil
}
