package router

import (
	"fmt"

	"github.com/anonto42/nano-midea/notifier/internal/handlers"
	"github.com/anonto42/nano-midea/notifier/internal/middleware"
	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/notifications"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/anonto42/nano-midea/notifier/pkg/logger"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Deps are the collaborators the routes are wired with
type Deps struct {
	PostStore     repositories.PostStore
	PostStoreName string
	Users         repositories.UserRepository
	Follows       repositories.FollowRepository
	Stores        repositories.StoreRepository
	Graph         *repositories.SocialGraph
	Hub           *notifications.Hub
	// TokenVerifier enables Firebase authentication; without it local JWTs are used.
	TokenVerifier middleware.TokenVerifier
	JWTSecret     string
}

// Migrate creates the PostgreSQL tables the service reads
func Migrate(pgdb *gorm.DB) error {
	if err := pgdb.AutoMigrate(&models.User{}, &models.Store{}, &models.Follow{}); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logger.Log.Info("PostgreSQL auto-migrations completed")
	return nil
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck(deps.PostStoreName))

	api := e.Group("/api/v1")
	if deps.TokenVerifier != nil {
		api.Use(middleware.FirebaseAuthMiddleware(deps.TokenVerifier, deps.Users, deps.Graph))
		logger.Log.Info("Firebase authentication middleware applied to /api/v1 group")
	} else {
		api.Use(middleware.JWTAuthMiddleware(deps.JWTSecret, deps.Users, deps.Graph))
		logger.Log.Info("JWT authentication middleware applied to /api/v1 group")
	}

	// Profile routes
	userHandler := handlers.NewUserHandler(deps.Users)
	userHandler.RegisterProfileRoutes(api)

	// Follow routes
	followHandler := handlers.NewFollowHandler(deps.Follows, deps.Stores, deps.Hub)
	followHandler.RegisterFollowRoutes(api)
	logger.Log.Info("Profile and follow routes configured")

	// Feed routes
	feedHandler := handlers.NewFeedHandler(deps.PostStore)
	feedHandler.RegisterFeedRoutes(api)
	logger.Log.Info("Feed routes configured")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(deps.Hub)
	notificationHandler.RegisterNotificationRoutes(api)
	logger.Log.Info("Notification routes configured")
}
