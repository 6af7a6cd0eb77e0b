package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/inventory-console/internal/api/http"
	"github.com/spec-kit/inventory-console/internal/api/http/handlers"
	"github.com/spec-kit/inventory-console/internal/auth"
	"github.com/spec-kit/inventory-console/internal/chat"
	"github.com/spec-kit/inventory-console/internal/config"
	"github.com/spec-kit/inventory-console/internal/events"
	"github.com/spec-kit/inventory-console/internal/identity"
	"github.com/spec-kit/inventory-console/internal/inventory"
	"github.com/spec-kit/inventory-console/internal/live"
	"github.com/spec-kit/inventory-console/internal/observability"
	"github.com/spec-kit/inventory-console/internal/persistence"
	"github.com/spec-kit/inventory-console/internal/repository"
	"github.com/spec-kit/inventory-console/internal/service"
	"github.com/spec-kit/inventory-console/internal/session"
	"github.com/spec-kit/inventory-console/internal/store"
	"github.com/spec-kit/inventory-console/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	var (
		backend  store.Backend
		accounts repository.AccountRepository
	)
	if pg.Enabled() {
		pool := pg.PoolHandle()
		backend = repository.NewNodeRepository(pool)
		accounts = repository.NewAccountRepository(pool)
	} else {
		backend = store.NewMemoryBackend()
		accounts = repository.NewMemoryAccountRepository()
	}

	bus := store.NewRedisBus(redis.Client, cfg.Redis.ChangeChannel, logger)
	tree := store.New(backend, logger, store.WithPublisher(bus), store.WithObserver(metrics))
	go worker.RunChangeBus(ctx, bus, tree.Hub(), logger)

	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	provider := identity.NewProvider(identity.Dependencies{
		Accounts:      accounts,
		Sessions:      identity.NewRedisSessionStore(redis.Client, cfg.Redis.SessionPrefix),
		Tokens:        tokens,
		Dispatcher:    dispatcher,
		AllowedDomain: cfg.Auth.AllowedDomain,
		BcryptCost:    cfg.Auth.BcryptCost,
		Logger:        logger,
	})

	loc := cfg.App.Location()
	sessions := session.NewRegistry(session.NewResolver(session.NewStoreDirectory(tree), logger), provider, logger)
	chats := chat.NewManager(tree, loc, logger, chat.WithDispatcher(dispatcher))
	provider.OnSessionChange(sessions.HandleSessionChange)
	provider.OnSessionChange(chats.HandleSessionChange)
	sessions.OnExpire(chats.Close)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	sheet := inventory.NewSource(tree, &http.Client{Timeout: cfg.Inventory.FetchTimeout()}, logger,
		inventory.WithTimeout(cfg.Inventory.FetchTimeout()))
	dashboard := live.NewDashboard(tree, sheet, loc, logger)
	statusService := service.NewStatusService(service.StatusDependencies{
		Store:      tree,
		Dispatcher: dispatcher,
		Recorder:   metrics,
		Logger:     logger,
	})
	loginService := service.NewLoginService(provider, sessions, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	deps := map[string]handlers.Pinger{"redis": redis}
	if pg.Enabled() {
		deps["postgres"] = pg
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Auth:           handlers.NewAuthHandler(loginService, cfg.Auth.SecureSessionCookie),
		Pages:          handlers.NewPagesHandler(dashboard),
		Requests:       handlers.NewRequestsHandler(statusService, dashboard, sessions, logger),
		Inventory:      handlers.NewInventoryHandler(sheet),
		Chat:           handlers.NewChatHandler(chats, sessions, logger),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, sessions),
		SignOut:        provider,
		LoginLimiter:   httptransport.NewRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst),
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
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
