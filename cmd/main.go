package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contesthub/server/billing"
	"github.com/contesthub/server/config"
	"github.com/contesthub/server/db"
	"github.com/contesthub/server/handlers"
	"github.com/contesthub/server/live"
	"github.com/contesthub/server/repositories"
	api "github.com/contesthub/server/routes"
	"github.com/contesthub/server/services"
	"github.com/contesthub/server/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established, migrations applied")

	// Banner uploads are optional: without R2 configuration the image
	// endpoint answers 503 and everything else works.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 configuration absent, contest banner uploads disabled")
	}

	hub := live.NewHub(logger)
	go hub.Run()
	logger.Info("live event hub started")

	gateway := billing.NewStripeGateway(cfg.StripeSecretKey)

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	contestRepo := repositories.NewPostgresContestRepository(dbConn)
	paymentRepo := repositories.NewPostgresPaymentRepository(dbConn)
	submissionRepo := repositories.NewPostgresSubmissionRepository(dbConn)
	logger.Info("repositories initialized")

	userService := services.NewUserService(userRepo)
	contestService := services.NewContestService(contestRepo, userRepo, uploader, hub)
	paymentService := services.NewPaymentService(dbConn, paymentRepo, contestRepo, gateway, hub)
	submissionService := services.NewSubmissionService(submissionRepo, paymentRepo, contestRepo)
	statsService := services.NewStatsService(userRepo, contestRepo, paymentRepo, submissionRepo)
	logger.Info("services initialized")

	h := api.Handlers{
		Health:     handlers.NewHealthHandler(dbConn),
		Auth:       handlers.NewAuthHandler(cfg.JWTSecretKey),
		User:       handlers.NewUserHandler(userService),
		Contest:    handlers.NewContestHandler(contestService),
		Payment:    handlers.NewPaymentHandler(paymentService),
		Submission: handlers.NewSubmissionHandler(submissionService),
		Stats:      handlers.NewStatsHandler(statsService),
		WebSocket:  handlers.NewWebSocketHandler(hub, contestService),
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, h, userRepo, cfg.JWTSecretKey, cfg.AllowedOrigins)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
