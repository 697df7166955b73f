package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/compost-norm-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/compost-norm-service/internal/adapter/kafka"
	"github.com/couchcryptid/compost-norm-service/internal/adapter/postgres"
	redisadapter "github.com/couchcryptid/compost-norm-service/internal/adapter/redis"
	"github.com/couchcryptid/compost-norm-service/internal/config"
	"github.com/couchcryptid/compost-norm-service/internal/observability"
	"github.com/couchcryptid/compost-norm-service/internal/pipeline"
	"github.com/couchcryptid/compost-norm-service/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	goredis "github.com/go-redis/redis/v8"
)

// serviceName is attached to every log record.
const serviceName = "compost-norms"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", serviceName)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	store := postgres.NewStore(db, logger)
	if cfg.DBAutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			logger.Error("failed to migrate schema", "error", err)
			os.Exit(1)
		}
		logger.Info("database schema applied")
	}

	readiness := []httpadapter.ReadinessChecker{store}

	reports := newReportSource(cfg, report.NewService(store), logger, metrics)
	readiness = append(readiness, reports.readiness...)

	sinks := []pipeline.NotificationSink{store}
	var writer *kafkaadapter.NotificationWriter
	if cfg.NotificationTopicEnabled {
		writer = kafkaadapter.NewNotificationWriter(cfg, logger)
		sinks = append(sinks, writer)
		logger.Info("notification topic enabled", "topic", cfg.KafkaNotificationTopic)
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	p := pipeline.New(reader, pipeline.NewDispatcher(store), sinks, reports.invalidator, logger, metrics, cfg.BatchSize)
	readiness = append(readiness, p)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.AllReady(readiness...), reports.source, metrics, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start dispatch pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if reports.client != nil {
		if err := reports.client.Close(); err != nil {
			logger.Error("redis client close error", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("postgres close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// reportSource is the report API backend, optionally fronted by the Redis cache.
type reportSource struct {
	source      report.Source
	invalidator pipeline.ReportInvalidator
	readiness   []httpadapter.ReadinessChecker
	client      *goredis.Client
}

// newReportSource wraps svc with the Redis cache when REDIS_ENABLED (or
// REDIS_ADDR) turns it on. No Redis client exists otherwise.
func newReportSource(cfg *config.Config, svc report.Source, logger *slog.Logger, metrics *observability.Metrics) reportSource {
	if !cfg.RedisEnabled {
		logger.Info("redis report cache disabled")
		return reportSource{source: svc}
	}

	client := redisadapter.NewClient(cfg)
	cache := redisadapter.NewReportCache(client, svc, cfg.RedisKeyPrefix, cfg.ReportCacheTTL, logger, metrics)
	metrics.ReportCacheEnabled.Set(1)
	logger.Info("redis report cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ReportCacheTTL)
	return reportSource{
		source:      cache,
		invalidator: cache,
		readiness:   []httpadapter.ReadinessChecker{cache},
		client:      client,
	}
}
