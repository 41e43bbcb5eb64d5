package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/farmerhub/backend/internal/router"
	"github.com/farmerhub/backend/internal/validators"
	"github.com/farmerhub/backend/pkg/config"
	"github.com/farmerhub/backend/pkg/firebase"
	"github.com/farmerhub/backend/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables from .env file if present, before the
	// configuration reads them
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, assuming environment variables are set")
	}

	cfg := config.Load()

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize database connections
	db, err := config.InitDB(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	ctx := context.Background()

	// Firebase login is optional, enabled by configuring credentials
	var firebaseAuthClient *auth.Client
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			zlog.Fatal("failed to initialize Firebase", zap.Error(err))
		}
		firebaseAuthClient = firebaseApp.AuthClient
	} else {
		zlog.Info("firebase credentials not configured, firebase login disabled")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e, zlog)

	// Setup routes and dependencies
	notifier, err := router.SetupRoutes(ctx, e, db.Postgres, db.Mongo.Database(cfg.MongoDatabase), firebaseAuthClient, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to set up routes", zap.Error(err))
	}

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			zlog.Info("server stopped", zap.Error(err))
		}
	}()

	// Wait for interrupt, then drain in-flight requests and queued
	// notification writes
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown error", zap.Error(err))
	}
	notifier.Flush()
	zlog.Info("server stopped cleanly")
}
