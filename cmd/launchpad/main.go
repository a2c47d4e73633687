package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amnabbouti/launchpad-api-sub000/internal/app"
	"github.com/amnabbouti/launchpad-api-sub000/internal/auth"
	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
	"github.com/amnabbouti/launchpad-api-sub000/internal/items"
	"github.com/amnabbouti/launchpad-api-sub000/internal/licenses"
	"github.com/amnabbouti/launchpad-api-sub000/internal/observability"
	"github.com/amnabbouti/launchpad-api-sub000/internal/organizations"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/cache"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/db"
	"github.com/amnabbouti/launchpad-api-sub000/internal/roles"
	"github.com/amnabbouti/launchpad-api-sub000/internal/tenancy"
	"github.com/amnabbouti/launchpad-api-sub000/internal/users"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tenancyManager := tenancy.NewManager(tenancy.NewPoolBinder(pool), logger)

	catalog := authz.NewCatalog()
	rolesRepo := roles.NewRepository(pool)
	engine := authz.NewEngine(catalog, rolesRepo, authz.EngineConfig{
		Production: cfg.IsProduction(),
		Logger:     logger,
	})
	governance := authz.NewGovernance(catalog)
	decisionCache := authz.NewDecisionCache(redisClient, cfg.AuthzCacheTTL, logger)
	metrics := observability.NewMetrics()

	authzMW := &authz.Middleware{
		Resolver:     authz.NewResolver(catalog),
		Engine:       engine,
		Cache:        decisionCache,
		Tenancy:      tenancyManager,
		Logger:       logger,
		Observer:     metrics,
		StrictRoutes: cfg.AuthzStrictRoutes,
	}

	tokens := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens)
	authMW := &auth.Middleware{Service: authService, Logger: logger}
	authHandler := auth.NewHandler(logger, authService)

	rolesService := roles.NewService(logger, rolesRepo, governance)
	rolesHandler := roles.NewHandler(logger, rolesService)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(logger, usersRepo, engine)
	usersHandler := users.NewHandler(logger, usersService)

	orgsRepo := organizations.NewRepository(pool)
	orgsService := organizations.NewService(logger, orgsRepo, engine)
	orgsHandler := organizations.NewHandler(logger, orgsService)

	licenseRepo := licenses.NewRepository(pool)
	licenseService := licenses.NewService(logger, licenseRepo, engine)
	licenseHandler := licenses.NewHandler(logger, licenseService)

	itemsRepo := items.NewRepository(pool)
	itemsService := items.NewService(logger, itemsRepo)
	itemsHandler := items.NewHandler(logger, itemsService)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		AuthMW:       authMW,
		AuthzMW:      authzMW,
		AuthHandler:  authHandler,
		RolesHandler: rolesHandler,
		UsersHandler: usersHandler,
		OrgsHandler:  orgsHandler,
		LicHandler:   licenseHandler,
		ItemsHandler: itemsHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
