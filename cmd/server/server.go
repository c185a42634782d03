package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chatcart/session-api/internal/actor"
	"github.com/chatcart/session-api/internal/config"
	"github.com/chatcart/session-api/internal/domain/session"
	"github.com/chatcart/session-api/internal/domain/throttle"
	"github.com/chatcart/session-api/internal/infrastructure/actorstore"
	"github.com/chatcart/session-api/internal/infrastructure/database"
	"github.com/chatcart/session-api/internal/infrastructure/logger"
	"github.com/chatcart/session-api/internal/infrastructure/metrics"
	"github.com/chatcart/session-api/internal/infrastructure/observability"
	"github.com/chatcart/session-api/internal/infrastructure/queue"
	"github.com/chatcart/session-api/internal/infrastructure/repository/backing"
	"github.com/chatcart/session-api/internal/interfaces/httpserver"
	"github.com/chatcart/session-api/internal/worker"
)

type Application struct {
	httpServer *httpserver.HTTPServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HTTPServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect backing store")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate backing store")
	}

	actorStore, err := actorstore.Open(cfg.ActorStorePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open actor store")
	}

	backingRepository := backing.NewPostgresRepository(db)

	// Background persistence pipeline for the analytics copy of appends.
	persistQueue := queue.NewMemoryQueue(cfg.PersistQueueSize, log)
	workerPool := worker.NewPool(
		persistQueue,
		backingRepository,
		worker.Config{
			WorkerCount: cfg.PersistWorkerCount,
			TaskTimeout: cfg.BackingTimeout,
		},
		log,
	)
	// The persist pipeline outlives the signal context: workers keep
	// draining after SIGTERM until Stop closes the queue, so accepted
	// copies are flushed instead of dropped.
	workerPool.Start(context.Background())

	runtimeCfg := actor.Config{MaxLive: cfg.MaxLiveActors}

	sessionService, err := session.NewService(
		session.Config{
			MaxMessages:      cfg.MaxMessages,
			InactivityWindow: cfg.InactivityWindow,
			BackingTimeout:   cfg.BackingTimeout,
		},
		runtimeCfg,
		actorStore,
		backingRepository,
		persistQueue,
		log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize session service")
	}

	throttleService, err := throttle.NewService(
		throttle.Config{
			MaxTokens:      cfg.BucketMaxTokens,
			RefillRate:     cfg.BucketRefillRate,
			RefillInterval: cfg.BucketRefillInterval,
		},
		runtimeCfg,
		actorStore,
		log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize throttle service")
	}

	go reportGauges(ctx, sessionService, throttleService, workerPool)

	httpServer := httpserver.New(cfg, log, sessionService, throttleService)
	app := NewApplication(httpServer, log)

	runErr := app.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := sessionService.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("drain session actors")
	}
	if err := throttleService.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("drain throttle actors")
	}

	// Stop closes the queue and waits for the workers to drain it.
	workerPool.Stop()

	if runErr != nil {
		log.Fatal().Err(runErr).Msg("application stopped with error")
	}
	log.Info().Msg("application exited cleanly")
}

func reportGauges(ctx context.Context, sessions *session.Service, throttles *throttle.Service, pool *worker.Pool) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetLiveActors("session", sessions.LiveActors())
			metrics.SetLiveActors("throttle", throttles.LiveActors())
			metrics.SetPersistQueueDepth(pool.QueueDepth())
		}
	}
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
