// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/curator-backend/internal/admin"
	"github.com/carterperez-dev/curator-backend/internal/auth"
	"github.com/carterperez-dev/curator-backend/internal/config"
	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/curation"
	"github.com/carterperez-dev/curator-backend/internal/health"
	"github.com/carterperez-dev/curator-backend/internal/invite"
	"github.com/carterperez-dev/curator-backend/internal/middleware"
	"github.com/carterperez-dev/curator-backend/internal/pick"
	"github.com/carterperez-dev/curator-backend/internal/profile"
	"github.com/carterperez-dev/curator-backend/internal/server"
	"github.com/carterperez-dev/curator-backend/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"driver", cfg.Database.Driver,
		"auto_migrate", cfg.Database.AutoMigrate,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redis != nil {
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	} else {
		logger.Warn("redis not configured, using in-process rate limits without token blacklist")
	}

	clock := core.SystemClock()

	if err := ensureSigningKey(cfg, logger); err != nil {
		return err
	}
	jwtManager, err := auth.NewJWTManager(cfg.JWT, clock)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.KeyID(),
	)

	curationSvc := curation.NewService(db.DB, clock, core.NewID, logger)
	curationHandler := curation.NewHandler(curationSvc)

	profileSvc := profile.NewService(db.DB, clock, logger)
	profileHandler := profile.NewHandler(profileSvc)
	pickHandler := pick.NewHandler(pick.NewService(db.DB, clock, core.NewID, logger))

	inviteSvc := invite.NewService(db.DB, cfg.Invite, clock, logger)
	inviteHandler := invite.NewHandler(inviteSvc)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, curationSvc, clock, core.NewID, logger)
	userHandler := user.NewHandler(userSvc, profileSvc)

	authSvc := auth.NewService(auth.ServiceDeps{
		Repo:         auth.NewRepository(db.DB),
		JWT:          jwtManager,
		UserProvider: userSvc,
		Invites:      inviteSvc,
		Redis:        redis.RawClient(),
		Clock:        clock,
		NewID:        core.NewID,
		Logger:       logger,
	})
	authHandler := auth.NewHandler(authSvc)

	components := []health.Component{{Name: "database", Checker: db}}
	adminCfg := admin.HandlerConfig{
		DB:       db.DB.DB,
		Curation: curationSvc,
		Users:    userSvc,
		Sessions: authSvc,
		Invites:  inviteSvc,
	}
	if redis != nil {
		components = append(components, health.Component{
			Name:     "redis",
			Checker:  redis,
			Optional: true,
		})
		adminCfg.RedisStats = redis.PoolStats
		adminCfg.RedisPing = redis.Ping
	}

	healthHandler := health.NewHandler(components...)
	adminHandler := admin.NewHandler(adminCfg)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.RawClient(), middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.JWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	adminOnly := middleware.RequireAdmin

	inviteLookupLimiter := middleware.NewRateLimiter(
		redis.RawClient(),
		middleware.RateLimitConfig{
			Limit: middleware.PerHour(
				cfg.RateLimit.InviteLookupsPerHour,
				cfg.RateLimit.InviteLookupsPerHour,
			),
			KeyFunc: middleware.KeyByScopedIP("invite_lookup"),
		},
	).Handler

	registrationLimiter := middleware.NewRateLimiter(
		redis.RawClient(),
		middleware.RateLimitConfig{
			Limit: middleware.PerHour(
				cfg.RateLimit.RegistrationsPerHour,
				cfg.RateLimit.RegistrationsPerHour,
			),
			KeyFunc: middleware.KeyByScopedIP("register"),
		},
	).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, registrationLimiter)

		r.Group(func(r chi.Router) {
			r.Use(inviteLookupLimiter)
			inviteHandler.RegisterPublicRoutes(r)
		})

		curationHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			authHandler.RegisterSessionRoutes(r)
			profileHandler.RegisterRoutes(r)
			curationHandler.RegisterOwnerRoutes(r)
			pickHandler.RegisterRoutes(r)
			inviteHandler.RegisterRoutes(r)
			userHandler.RegisterAccountRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(adminOnly)

			curationHandler.RegisterAdminRoutes(r)
			inviteHandler.RegisterAdminRoutes(r)
			userHandler.RegisterAdminRoutes(r)
			adminHandler.RegisterRoutes(r)
		})
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// ensureSigningKey generates a key pair on first boot in development.
// Production must ship its key.
func ensureSigningKey(cfg *config.Config, logger *slog.Logger) error {
	_, err := os.Stat(cfg.JWT.PrivateKeyPath)
	if err == nil || !errors.Is(err, os.ErrNotExist) || cfg.IsProduction() {
		return nil
	}

	if err := auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); err != nil {
		return fmt.Errorf("generate signing key: %w", err)
	}
	logger.Warn("generated development signing key", "path", cfg.JWT.PrivateKeyPath)
	return nil
}
