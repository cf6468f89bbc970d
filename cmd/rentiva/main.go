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

	"golang.org/x/sync/errgroup"

	"github.com/rentiva/rentiva/internal/app"
	"github.com/rentiva/rentiva/internal/auth"
	"github.com/rentiva/rentiva/internal/authz"
	"github.com/rentiva/rentiva/internal/observability"
	"github.com/rentiva/rentiva/internal/onboarding"
	"github.com/rentiva/rentiva/internal/pages"
	"github.com/rentiva/rentiva/internal/platform/cache"
	"github.com/rentiva/rentiva/internal/platform/db"
	"github.com/rentiva/rentiva/internal/shared"
	"github.com/rentiva/rentiva/internal/users"
	"github.com/rentiva/rentiva/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "rentiva_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	roleCache := authz.NewRoleCache(authz.RoleCacheConfig{
		Client:        redisClient,
		TTL:           cfg.RoleCacheTTL,
		SweepInterval: cfg.RoleCacheSweep,
		Logger:        logger,
	})
	defer roleCache.Stop()

	userStore := authz.NewPGUserStore(pool)
	resolver := authz.NewRoleResolver(roleCache, userStore, logger)
	policy := authz.NewStaticRoutePolicy()
	pipeline := authz.NewPipeline(authz.PipelineConfig{
		Resolver:     resolver,
		Store:        userStore,
		Policy:       policy,
		Sessions:     sessionManager,
		StoreTimeout: cfg.StoreTimeout,
		Logger:       logger,
		Observer:     metrics,
	})

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager, roleCache)

	onboardingService := onboarding.NewService(onboarding.NewRepository(pool), roleCache)
	onboardingHandler := onboarding.NewHandler(logger, onboardingService, templates, csrfManager, policy)

	usersService := users.NewService(users.NewRepository(pool), roleCache, sessionManager)
	usersHandler := users.NewHandler(logger, usersService)

	pagesHandler := pages.NewHandler(logger, templates, csrfManager)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Authorization:     authz.Middleware{Pipeline: pipeline},
		AuthHandler:       authHandler,
		OnboardingHandler: onboardingHandler,
		PagesHandler:      pagesHandler,
		UsersHandler:      usersHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
