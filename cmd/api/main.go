package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "tasktracker/docs" // Swagger docs (generated)
	"tasktracker/internal/auth"
	"tasktracker/internal/config"
	"tasktracker/internal/database"
	httpServer "tasktracker/internal/http"
	"tasktracker/internal/logging"
	"tasktracker/internal/password"
	"tasktracker/internal/task"
	"tasktracker/internal/token"
	"tasktracker/internal/user"
)

// @title           Task Tracker API
// @version         1.0
// @description     Task tracking backend with credential and session management.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_backend", string(cfg.Auth.TokenBackend),
	)

	// Initialize database connection
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize password hasher
	hasher, err := password.NewHasher(password.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	// Initialize token issuers: access and refresh carry independent secrets
	// and lifetimes.
	accessIssuer, err := token.NewIssuer(
		string(cfg.Auth.TokenBackend),
		cfg.Auth.AccessTokenSecret,
		cfg.Auth.AccessTokenExpirationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize access token issuer: %w", err)
	}
	refreshIssuer, err := token.NewIssuer(
		string(cfg.Auth.TokenBackend),
		cfg.Auth.RefreshTokenSecret,
		cfg.Auth.RefreshTokenExpirationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize refresh token issuer: %w", err)
	}

	// Initialize repositories
	userRepo := user.NewRepository(db, hasher, logger)
	taskRepo := task.NewRepository(db, logger)

	// Initialize session service
	authService := auth.NewService(
		userRepo,
		hasher,
		accessIssuer,
		refreshIssuer,
		logger,
		cfg.Auth.AccessTokenExpirationMs,
		cfg.Auth.RefreshTokenExpirationMs,
	)

	// Initialize refresh token extraction strategy
	extractor, err := auth.NewRefreshTokenExtractor(cfg.Auth.RefreshTokenSource)
	if err != nil {
		return fmt.Errorf("failed to initialize refresh token extractor: %w", err)
	}

	// Initialize HTTP handlers
	authHandler := auth.NewHandler(
		authService,
		refreshIssuer,
		extractor,
		logger,
		cfg.Auth,
		!cfg.Server.IsDevelopment(), // isProduction
	)
	authMiddleware := auth.NewMiddleware(accessIssuer)
	userHandler := user.NewHandler(userRepo, logger)
	taskHandler := task.NewHandler(taskRepo, logger)

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, userHandler, taskHandler, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
