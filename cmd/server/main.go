package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/middleware"
	"github.com/anonto42/nano-midea/notifier/internal/notifications"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/anonto42/nano-midea/notifier/internal/router"
	"github.com/anonto42/nano-midea/notifier/pkg/config"
	"github.com/anonto42/nano-midea/notifier/pkg/firebase"
	"github.com/anonto42/nano-midea/notifier/pkg/logger"
	"github.com/anonto42/nano-midea/notifier/pkg/metrics"
	"github.com/anonto42/nano-midea/notifier/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.InitLogger(cfg.LogLevel)
	log := logger.Log

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	if err := router.Migrate(db.Postgres); err != nil {
		log.Fatal(err)
	}

	// Initialize Firebase
	ctx := context.Background()
	var firebaseApp *firebase.App
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseProjectID)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		defer firebaseApp.Close()
	}

	var postStore repositories.PostStore
	switch cfg.PostStore {
	case config.PostStoreFirestore:
		if firebaseApp == nil {
			log.Fatal("POST_STORE=firestore requires FIREBASE_CREDENTIALS_PATH")
		}
		postStore = repositories.NewFirestorePostStore(firebaseApp.Firestore)
	case config.PostStoreMongo:
		postStore = repositories.NewMongoPostStore(db.Mongo.Database(cfg.MongoDatabase))
	default:
		log.Fatalf("Unknown POST_STORE %q", cfg.PostStore)
	}

	users := repositories.NewPostgresUserRepository(db.Postgres)
	follows := repositories.NewPostgresFollowRepository(db.Postgres)
	stores := repositories.NewPostgresStoreRepository(db.Postgres)
	graph := repositories.NewSocialGraph(follows, stores)
	hub := notifications.NewHub(postStore, graph, notifications.WithNoveltyWindow(cfg.NoveltyWindow))
	defer hub.Close()

	deps := router.Deps{
		PostStore:     postStore,
		PostStoreName: cfg.PostStore,
		Users:         users,
		Follows:       follows,
		Stores:        stores,
		Graph:         graph,
		Hub:           hub,
		JWTSecret:     cfg.JWTSecret,
	}
	if firebaseApp != nil {
		deps.TokenVerifier = middleware.TokenVerifier(firebaseApp.AuthClient)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	config.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, deps)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Metrics server shutdown failed")
	}
	log.Info("Server stopped")
}
