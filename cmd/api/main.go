package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/useradmin/internal/auth"
	"github.com/BradenHooton/useradmin/internal/background"
	"github.com/BradenHooton/useradmin/internal/config"
	"github.com/BradenHooton/useradmin/internal/database"
	"github.com/BradenHooton/useradmin/internal/directory"
	"github.com/BradenHooton/useradmin/internal/handlers"
	middlewareCustom "github.com/BradenHooton/useradmin/internal/middleware"
	"github.com/BradenHooton/useradmin/internal/repositories"
	"github.com/BradenHooton/useradmin/internal/routes"
	"github.com/BradenHooton/useradmin/internal/services"
	"github.com/BradenHooton/useradmin/internal/userview"
	"github.com/BradenHooton/useradmin/internal/viewsession"
	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
	pkglogger "github.com/BradenHooton/useradmin/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// filterStateScope prefixes the ui_state key each administrator's filter is stored under.
const filterStateScope = "userview.filter"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx)
	migrateCancel()
	if err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	clusterRepo := repositories.NewVirtualClusterRepository(db)
	uiStateRepo := repositories.NewUIStateRepository(db)

	directoryClient := directory.NewClient(cfg.Directory.BaseURL, cfg.Directory.MaxPages, cfg.Directory.Timeout, logger)
	auditLogger := pkglogger.NewAuditLogger(logger)

	var notifier services.PasswordChangeNotifier = services.NoopNotifier{}
	if cfg.Email.Enabled {
		sesCtx, sesCancel := context.WithTimeout(context.Background(), 10*time.Second)
		sesNotifier, err := services.NewSESNotifier(sesCtx, cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		sesCancel()
		if err != nil {
			logger.Error("failed to initialize email notifier", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = sesNotifier
	}

	// Initialize services
	userService := services.NewUserService(userRepo, clusterRepo, directoryClient, notifier, auditLogger, logger)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	timingDelay := auth.NewTimingDelay(auth.DefaultTimingConfig)
	authService := services.NewAuthService(userRepo, tokenManager, cfg.Auth.AccessTokenExpiry, timingDelay, auditLogger, logger)

	// Bootstrap first admin user if configured
	if cfg.Auth.BootstrapUsername != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := userService.EnsureAdmin(ctx, cfg.Auth.BootstrapUsername, cfg.Auth.BootstrapPassword); err != nil {
			logger.Error("failed to ensure admin user", slog.Any("error", err))
		}
		cancel()
	} else {
		logger.Info("no ADMIN_USERNAME set, skipping admin user creation")
	}

	// View sessions: one controller per opened view, filter persisted per administrator
	registry := viewsession.NewRegistry(func(owner string) (*userview.Controller, error) {
		return userview.NewController(userview.ControllerConfig{
			Source:           userService,
			Mutator:          userService,
			Store:            uiStateRepo,
			StoreKey:         filterStateScope + ":" + owner,
			Logger:           logger.With(slog.String("view_owner", owner)),
			DebounceDelay:    cfg.View.FilterDebounce,
			BatchConcurrency: cfg.View.BatchConcurrency,
		})
	}, logger)
	defer registry.CloseAll()

	cleanupManager := background.NewCleanupManager(registry, cfg.View.SessionIdleTimeout, logger, cfg.View.CleanupInterval)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	userHandler := handlers.NewUserHandler(userService, logger)
	viewHandler := handlers.NewViewHandler(registry, logger, cfg.Server.LoginURL)
	authHandler := handlers.NewAuthHandler(authService, ipConfig, logger)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, userHandler, viewHandler, authHandler, db, tokenManager, userRepo,
		routes.Limits{
			Login: middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Auth.LoginRateLimit},
			Batch: middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.View.BatchRateLimit},
		},
		logger,
	)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
