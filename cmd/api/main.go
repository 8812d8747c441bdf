package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	httpAdapter "github.com/lorrc/atendimento-dashboard/internal/adapters/primary/http"
	mw "github.com/lorrc/atendimento-dashboard/internal/adapters/primary/http/middleware"
	"github.com/lorrc/atendimento-dashboard/internal/adapters/primary/websocket"
	"github.com/lorrc/atendimento-dashboard/internal/adapters/secondary/cache"
	"github.com/lorrc/atendimento-dashboard/internal/adapters/secondary/postgres"
	"github.com/lorrc/atendimento-dashboard/internal/adapters/secondary/sheets"
	"github.com/lorrc/atendimento-dashboard/internal/adapters/secondary/snapshot"
	"github.com/lorrc/atendimento-dashboard/internal/auth"
	"github.com/lorrc/atendimento-dashboard/internal/config"
	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
	"github.com/lorrc/atendimento-dashboard/internal/core/services"
	"github.com/lorrc/atendimento-dashboard/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := domain.ValidateFacetMapping(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()
	clock := time.Now

	// 3. Record sources (Secondary Adapters). Every backend is optional; with
	// none configured the dashboard serves the embedded snapshot.
	snapshotSource := snapshot.NewEmbedded(clock, logger)
	checkers := map[string]httpAdapter.HealthChecker{}

	var repo *postgres.RecordRepository
	if cfg.Database.URL != "" {
		if err := postgres.RunMigrations(cfg.Database.MigrationsPath, cfg.Database.URL); err != nil {
			return err
		}
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		repo = postgres.NewRecordRepository(pool)
		checkers["database"] = repo
		logger.Info("database connection established")
	}

	var lister ports.RecordLister
	switch {
	case cfg.Sheets.CSVURL != "" && repo != nil:
		lister = services.NewSyncingLister(sheets.NewClient(cfg.Sheets.CSVURL, cfg.Sheets.Timeout, logger), repo, logger)
	case cfg.Sheets.CSVURL != "":
		lister = sheets.NewClient(cfg.Sheets.CSVURL, cfg.Sheets.Timeout, logger)
	case repo != nil:
		lister = repo
	}

	var dataSource ports.DatasetSource = snapshotSource
	refreshSource := dataSource
	if lister != nil {
		dataSource = services.NewRecordDatasetSource(lister, clock)
		refreshSource = dataSource

		if cfg.Redis.URL != "" {
			redisCache, err := cache.New(ctx, cache.WithURL(cfg.Redis.URL))
			if err != nil {
				return err
			}
			defer func() { _ = redisCache.Close() }()

			cached := cache.NewCachedSource(dataSource, redisCache, cfg.Redis.KeyPrefix, cfg.Redis.TTL, logger)
			dataSource = cached
			refreshSource = cached.Fresh()
			checkers["cache"] = redisCache
			logger.Info("dataset cache enabled", "ttl", cfg.Redis.TTL)
		}
	}

	initial, err := snapshotSource.Load(ctx)
	if err != nil {
		return err
	}

	// 4. Core services
	bus := services.NewEventBus(logger)
	engine := services.NewFilterEngine(loc, logger)
	dashboard := services.NewDashboardService(bus, engine, initial, clock, logger)
	defer dashboard.Close()
	refresh := services.NewRefreshService(refreshSource, dashboard, logger)

	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	authService := services.NewAuthService(cfg.Auth.OperatorPasswordHash, tokenManager)

	// 5. Real-time fan-out
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)
	detach := hub.Attach(bus)
	defer detach()

	if lister != nil {
		if cfg.Dashboard.RefreshOnStart {
			if err := refresh.Refresh(ctx); err != nil {
				logger.Warn("initial refresh failed, serving the embedded snapshot", "error", err)
			}
		}
		if cfg.Dashboard.RefreshInterval > 0 {
			go refreshLoop(ctx, refresh, cfg.Dashboard.RefreshInterval)
		}
	}

	// 6. Rate limiters
	var generalRateLimiter, authRateLimiter *mw.RateLimiter
	var commandLimiter websocket.Limiter
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(ctx, mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		authRateLimiter = mw.NewRateLimiter(ctx, mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AuthRPS,
			BurstSize:         cfg.RateLimit.AuthBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		})

		commandLimiter = mw.NewRateLimitByKey(ctx, mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.CommandRPS,
			BurstSize:         cfg.RateLimit.CommandBurst,
			CleanupInterval:   time.Minute,
			TTL:               10 * time.Minute,
		})
	}

	// 7. Handlers (Primary Adapters)
	errorHandler := httpAdapter.NewErrorHandler(logger)
	dataHandler := httpAdapter.NewDataHandler(dataSource, logger)
	authHandler := httpAdapter.NewAuthHandler(authService, errorHandler, logger)
	dashboardHandler := httpAdapter.NewDashboardHandler(dashboard, refresh, errorHandler, loc, cfg.Dashboard.RecordsPageSize, logger)
	healthHandler := httpAdapter.NewHealthHandler(checkers, cfg.App.Version)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, dashboard, commandLimiter, httpAdapter.WebSocketConfig{
		AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		IsDevelopment:   cfg.IsDevelopment(),
		Client: websocket.ClientConfig{
			PingInterval: cfg.WebSocket.PingInterval,
			PongWait:     cfg.WebSocket.PongWait,
			Location:     loc,
		},
	}, logger)

	// 8. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	if len(cfg.Server.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api for standard probe paths)
	healthHandler.RegisterRoutes(r)

	r.Route("/api", func(r chi.Router) {
		// Full dataset, the renderers' bootstrap payload
		r.Route("/data", dataHandler.RegisterRoutes)

		r.Route("/v1", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if authRateLimiter != nil {
					r.Use(authRateLimiter.Middleware)
				}
				r.Route("/auth", authHandler.RegisterRoutes)
			})

			// WebSocket route (Authentication is handled inside the handler)
			r.Get("/ws", wsHandler.ServeHTTP)

			r.Route("/dashboard", func(r chi.Router) {
				dashboardHandler.RegisterRoutes(r, mw.JWTMiddleware(tokenManager))
			})
		})
	})

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// refreshLoop reloads the dataset every interval until ctx is done. Failures
// keep the current dataset and are logged by the refresh service.
func refreshLoop(ctx context.Context, refresh ports.RefreshService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = refresh.Refresh(ctx)
		}
	}
}
