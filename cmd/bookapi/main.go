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

	"github.com/redis/go-redis/v9"

	"github.com/bookapi/book-api/internal/app"
	"github.com/bookapi/book-api/internal/auth"
	"github.com/bookapi/book-api/internal/authz"
	"github.com/bookapi/book-api/internal/observability"
	"github.com/bookapi/book-api/internal/platform/cache"
	"github.com/bookapi/book-api/internal/platform/db"
	"github.com/bookapi/book-api/internal/products"
	"github.com/bookapi/book-api/internal/rbac"
	"github.com/bookapi/book-api/internal/users"
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

	catalogue, err := loadCatalogue(cfg.CatalogueFile)
	if err != nil {
		logger.Error("load catalogue", slog.Any("error", err))
		os.Exit(1)
	}
	registry, err := authz.NewRegistry(catalogue, authz.DefaultOperations())
	if err != nil {
		logger.Error("build operation registry", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if err := db.Migrate(ctx, dbpool, logger); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}

	// Without Redis the role cache is disabled and every request reads
	// user_roles directly.
	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, role cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	enforcer := authz.NewEnforcer(authz.NewEngine(catalogue), registry, logger, metrics)

	tokens, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTExpiration)
	if err != nil {
		logger.Error("token issuer", slog.Any("error", err))
		os.Exit(1)
	}

	rbacRepo := rbac.NewRepository(dbpool)
	// The cache reads through a service without an invalidator; the service
	// that changes assignments invalidates through the cache.
	roleSource := rbac.NewService(rbacRepo, catalogue, nil, logger)
	roleCache := auth.NewRoleCache(roleSource, redisClient, cfg.RoleCacheTTL, metrics)
	rbacService := rbac.NewService(rbacRepo, catalogue, roleCache, logger)
	if err := rbacService.SyncCatalogue(ctx); err != nil {
		logger.Error("sync catalogue", slog.Any("error", err))
		os.Exit(1)
	}

	usersService := users.NewService(users.NewRepository(dbpool), rbacService, catalogue, logger, users.WithInvalidator(roleCache))
	authService := auth.NewService(auth.NewRepository(dbpool), usersService, tokens, catalogue, logger)
	productsService := products.NewService(products.NewRepository(dbpool), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Authenticator:   auth.NewAuthenticator(tokens, roleCache, catalogue, logger),
		Enforcer:        enforcer,
		AuthHandler:     auth.NewHandler(logger, authService, enforcer),
		UsersHandler:    users.NewHandler(logger, usersService, enforcer),
		RBACHandler:     rbac.NewHandler(logger, rbacService, enforcer),
		ProductsHandler: products.NewHandler(logger, productsService, enforcer),
		Metrics:         metrics,
		Database:        dbpool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Int("operations", len(registry.Operations())))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func loadCatalogue(path string) (*authz.Catalogue, error) {
	if path == "" {
		return authz.DefaultCatalogue()
	}
	return authz.LoadCatalogueFile(path)
}
