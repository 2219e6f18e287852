package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-todo-api/internal/config"
	"go-todo-api/internal/database"
	"go-todo-api/internal/handler"
	"go-todo-api/internal/metrics"
	"go-todo-api/internal/middleware"
	"go-todo-api/internal/notify"
	"go-todo-api/internal/password"
	"go-todo-api/internal/repository"
	"go-todo-api/internal/revocation"
	"go-todo-api/internal/router"
	"go-todo-api/internal/service"
	"go-todo-api/internal/token"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()
	a := &App{}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)

	if err := db.EnsureSchema(ctx); err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	slog.Info("connecting to Redis", "addr", cfg.RedisAddr)
	redisClient, err := revocation.NewRedisClient(ctx, revocation.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, func() { _ = redisClient.Close() })
	revocations := revocation.NewRedisStore(redisClient, cfg.RevocationTTL)
	slog.Info("revocation store ready", "ttl", revocations.TTL())

	dispatcher, err := newDispatcher(cfg)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to initialize notification dispatcher: %w", err)
	}
	if closer, ok := dispatcher.(io.Closer); ok {
		a.cleanupFuncs = append(a.cleanupFuncs, func() { _ = closer.Close() })
	}

	codec, err := token.NewCodec(cfg.JWTSecret, token.WithActionTTL(cfg.ActionTokenTTL))
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	userRepo := repository.NewUserRepository(db.Pool)
	todoRepo := repository.NewTodoRepository(db.Pool)

	accountService := service.NewAccountService(userRepo, password.NewHasher(cfg.BcryptCost))
	mailer := notify.NewMailer(dispatcher, cfg.APIBaseURL, codec.ActionTTL())
	authService := service.NewAuthService(accountService, codec, revocations, mailer, service.AuthConfig{
		AccessTTL:  cfg.JWTAccessTTL,
		RefreshTTL: cfg.JWTRefreshTTL,
	})
	todoService := service.NewTodoService(todoRepo)

	appMetrics := metrics.New()
	authMiddleware := middleware.NewAuthMiddleware(codec, revocations, accountService, appMetrics)

	appRouter := router.New(cfg, authMiddleware, appMetrics, router.Handlers{
		Auth: handler.NewAuthHandler(authService),
		User: handler.NewUserHandler(authService),
		Todo: handler.NewTodoHandler(todoService),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"database": db.Ping,
			"redis":    revocations.Ping,
		}),
	})

	a.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return a, nil
}

func newDispatcher(cfg *config.Config) (notify.Dispatcher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		slog.Warn("KAFKA_BROKERS not set; notifications are logged instead of published")
		return notify.NewLogDispatcher(slog.Default()), nil
	}

	slog.Info("publishing notifications to Kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.NotifyTopic)
	return notify.NewKafkaDispatcher(notify.KafkaConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.NotifyTopic,
		BatchTimeout: cfg.KafkaBatchTimeout,
	})
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

// cleanup releases resources in reverse order of acquisition.
func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
