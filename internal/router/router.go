package router

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/farmerhub/backend/internal/engine"
	"github.com/farmerhub/backend/internal/handlers"
	"github.com/farmerhub/backend/internal/middleware"
	"github.com/farmerhub/backend/internal/models"
	"github.com/farmerhub/backend/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/farmerhub/backend/internal/repositories"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, log *zap.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))
}

// SetupRoutes configures all application routes and injects dependencies.
// The returned Notifier must be flushed before shutdown so queued
// notification writes land.
func SetupRoutes(
	ctx context.Context,
	e *echo.Echo,
	pgdb *gorm.DB,
	mongoDB *mongo.Database,
	firebaseAuthClient *auth.Client,
	cfg *config.Config,
	log *zap.Logger,
) (*engine.Notifier, error) {
	// AutoMigrate PostgreSQL models
	if err := pgdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Notification{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("postgres auto-migrations completed")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	commentRepo := repositories.NewMongoCommentRepository(mongoDB)
	groupRepo := repositories.NewMongoGroupRepository(mongoDB)
	qaRepo, err := repositories.NewMongoQARepository(ctx, mongoDB)
	if err != nil {
		return nil, fmt.Errorf("qa repository: %w", err)
	}

	// --- Core engine and notification sink ---
	notifier := engine.NewNotifier(notificationRepo, log)
	eng := engine.New(userRepo, followRepo, postRepo, commentRepo, groupRepo, notifier, log)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes ---
	// When Firebase is configured the protected group accepts Firebase ID
	// tokens as well as locally issued JWTs.
	api := e.Group("/api/v1")
	if firebaseAuthClient != nil {
		api.Use(middleware.JWTOrFirebaseAuthMiddleware(cfg.JWTSecret, firebaseAuthClient, userRepo))
	} else {
		api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	}

	userHandler := handlers.NewUserHandler(userRepo, eng)
	userHandler.RegisterProfileRoutes(api)

	followHandler := handlers.NewFollowHandler(eng)
	followHandler.RegisterFollowRoutes(api)

	postHandler := handlers.NewPostHandler(eng, userRepo)
	postHandler.RegisterPostRoutes(api)

	feedHandler := handlers.NewFeedHandler(eng)
	feedHandler.RegisterFeedRoutes(api)

	groupHandler := handlers.NewGroupHandler(eng, groupRepo)
	groupHandler.RegisterGroupRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)

	qaHandler := handlers.NewQAHandler(qaRepo)
	qaHandler.RegisterQARoutes(api)

	log.Info("all routes configured")
	return notifier, nil
}
