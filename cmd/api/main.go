package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/item-service/internal/api/http"
	"github.com/spec-kit/item-service/internal/api/http/handlers"
	"github.com/spec-kit/item-service/internal/auth"
	"github.com/spec-kit/item-service/internal/cache"
	"github.com/spec-kit/item-service/internal/config"
	"github.com/spec-kit/item-service/internal/events"
	"github.com/spec-kit/item-service/internal/observability"
	"github.com/spec-kit/item-service/internal/persistence"
	"github.com/spec-kit/item-service/internal/repository"
	"github.com/spec-kit/item-service/internal/service"
	"github.com/spec-kit/item-service/internal/worker"
)

func main() {
	var envFile string
	var addr string

	flagSet := pflag.NewFlagSet("item-service", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", "", "load environment variables from this file before reading config")
	flagSet.StringVar(&addr, "addr", "", "listen address (overrides APP_HOST and APP_PORT)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		log.Fatalf("parse flags: %v", err)
	}

	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if addr == "" {
		addr = cfg.App.Addr()
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var itemRepo repository.ItemRepository
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		itemRepo = repository.NewItemRepository(pg.PoolHandle())
	} else {
		itemRepo = repository.NewMemoryItemRepository()
	}

	var redis *persistence.Redis
	itemCache := cache.NewNoopItemCache()
	if cfg.Cache.Enabled {
		redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		itemCache = cache.NewRedisItemCache(redis.Client, cfg.Cache.TTL())
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartItemEventsWorker(service.NewItemEventsService(dispatcher, logger))

	tokenMgr, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithm)
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	authService := service.NewAuthService(tokenMgr)
	itemService := service.NewItemService(service.ItemDependencies{
		ItemRepo:   itemRepo,
		Cache:      itemCache,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Tokens:         handlers.NewTokenHandler(authService),
		Items:          handlers.NewItemsHandler(itemService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), logger),
		Policy:         auth.DefaultPolicy(),
	}, httptransport.MiddlewareConfig{
		AppName: cfg.App.Name,
		Logger:  logger,
		Metrics: metrics,
		Timeout: cfg.App.RequestTimeout(),
	})

	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.Bool("postgres", pg.Enabled()), zap.Bool("cache", cfg.Cache.Enabled))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
