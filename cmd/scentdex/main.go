package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/scentlab/scentdex/internal/config"
	dbRedis "github.com/scentlab/scentdex/internal/db/redis"
	"github.com/scentlab/scentdex/internal/events"
	logpkg "github.com/scentlab/scentdex/internal/logger"
	"github.com/scentlab/scentdex/internal/metrics"
	documentrepo "github.com/scentlab/scentdex/internal/repository/document"
	perfumerepo "github.com/scentlab/scentdex/internal/repository/perfume"
	preferencerepo "github.com/scentlab/scentdex/internal/repository/preference"
	searchrepo "github.com/scentlab/scentdex/internal/repository/search"
	"github.com/scentlab/scentdex/internal/scheduler"
	chiTransport "github.com/scentlab/scentdex/internal/transport/chi"
	healthuc "github.com/scentlab/scentdex/internal/usecase/health"
	indexinguc "github.com/scentlab/scentdex/internal/usecase/indexing"
	prefuc "github.com/scentlab/scentdex/internal/usecase/preference"
	searchuc "github.com/scentlab/scentdex/internal/usecase/search"
	"github.com/scentlab/scentdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting scentdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("store_addrs", cfg.Database.Addrs),
	)

	// Register indexing metrics explicitly (no init())
	metrics.RegisterIndexingMetrics()

	// Search store
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create search store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Search store not ready", zap.Error(err))
	}
	logger.Info("Connected to search store")

	// Relational catalogue
	poolCfg, err := pgxpool.ParseConfig(cfg.Catalogue.URL)
	if err != nil {
		logger.Fatal("Invalid catalogue url", zap.Error(err))
	}
	poolCfg.MaxConns = cfg.Catalogue.MaxConns
	poolCfg.MinConns = cfg.Catalogue.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Fatal("Failed to create catalogue pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Catalogue not ready", zap.Error(err))
	}
	logger.Info("Connected to catalogue")

	// Repositories
	catalogueRepo := perfumerepo.New(pool)
	docRepo := documentrepo.New(store)
	searchRepo := searchrepo.New(store).WithCandidateCap(cfg.Search.CandidateCap)
	prefRepo := preferencerepo.New(store)

	if err := docRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure search index", zap.Error(err))
	}

	// Use case services
	indexingSvc := indexinguc.New(catalogueRepo, docRepo)
	searchSvc := searchuc.New(searchRepo, prefRepo)
	prefSvc := prefuc.New(catalogueRepo, prefRepo)
	healthSvc := healthuc.New(store, pool)

	// Event sync: catalogue change events drive single-perfume reindexing.
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	defer func() { _ = bus.Close() }()

	var poisonPub message.Publisher
	if cfg.Events.PoisonQueueEnabled {
		poisonPub = bus
	}

	consumer, err := events.NewConsumer(events.ConsumerConfig{
		RetryMaxRetries:      cfg.Events.RetryMaxRetries,
		RetryInitialInterval: time.Duration(cfg.Events.RetryInitialSec) * time.Second,
		RetryMaxInterval:     time.Duration(cfg.Events.RetryMaxIntervalSec) * time.Second,
		RetryMultiplier:      cfg.Events.RetryMultiplier,
		CloseTimeout:         time.Duration(cfg.Events.CloseTimeoutSec) * time.Second,
	}, indexingSvc, bus, poisonPub, logger)
	if err != nil {
		logger.Fatal("Failed to create event consumer", zap.Error(err))
	}

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()
	go func() {
		if err := consumer.Run(consumerCtx); err != nil {
			logger.Error("Event consumer stopped", zap.Error(err))
		}
	}()

	select {
	case <-consumer.Running():
		logger.Info("Event consumer running")
	case <-time.After(10 * time.Second):
		logger.Fatal("Event consumer never started")
	}

	// Periodic maintenance jobs
	sched := scheduler.New(indexingSvc, prefSvc, logger, scheduler.Config{
		ReindexInterval:    time.Duration(cfg.Scheduler.ReindexIntervalHours) * time.Hour,
		PreferenceInterval: time.Duration(cfg.Scheduler.PreferenceHours) * time.Hour,
		RunOnStart:         cfg.Scheduler.RunOnStart,
		Enabled:            cfg.Scheduler.Enabled,
	})
	if err := sched.Start(ctx); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// HTTP surface
	server := chiTransport.NewServer(searchSvc, indexingSvc, prefSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	cancelConsumer()
	if err := consumer.Close(); err != nil {
		logger.Error("Error closing event consumer", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
