// Package redis caches compost reports in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/compost-norm-service/internal/config"
	"github.com/couchcryptid/compost-norm-service/internal/domain"
	"github.com/couchcryptid/compost-norm-service/internal/observability"
	"github.com/couchcryptid/compost-norm-service/internal/report"
	goredis "github.com/go-redis/redis/v8"
)

// NewClient creates a go-redis client from the service configuration.
func NewClient(cfg *config.Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// ReportCache serves reports from Redis and falls back to the wrapped source.
// It implements report.Source and pipeline.ReportInvalidator.
type ReportCache struct {
	client  *goredis.Client
	inner   report.Source
	prefix  string
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReportCache wraps inner with a Redis-backed cache.
func NewReportCache(client *goredis.Client, inner report.Source, prefix string, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *ReportCache {
	return &ReportCache{
		client:  client,
		inner:   inner,
		prefix:  prefix,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

var errStaleReport = errors.New("report invalidated during computation")

func (c *ReportCache) key(compostID int64) string {
	return c.prefix + "report:" + strconv.FormatInt(compostID, 10)
}

func (c *ReportCache) genKey(compostID int64) string {
	return c.prefix + "report-gen:" + strconv.FormatInt(compostID, 10)
}

// Report returns the cached report when present. Redis failures are logged
// and the report is computed from the inner source instead.
func (c *ReportCache) Report(ctx context.Context, compostID int64) (domain.Report, error) {
	key := c.key(compostID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rep domain.Report
		jerr := json.Unmarshal(raw, &rep)
		if jerr == nil {
			c.metrics.ReportCache.WithLabelValues("hit").Inc()
			return rep, nil
		}
		c.logger.Warn("discarding corrupt cached report", "error", jerr, "key", key)
		c.metrics.ReportCache.WithLabelValues("error").Inc()
	case errors.Is(err, goredis.Nil):
		c.metrics.ReportCache.WithLabelValues("miss").Inc()
	default:
		c.logger.Warn("report cache read failed", "error", err, "key", key)
		c.metrics.ReportCache.WithLabelValues("error").Inc()
	}

	gen, genErr := generation(c.client.Get(ctx, c.genKey(compostID)))
	rep, err := c.inner.Report(ctx, compostID)
	if err != nil {
		return domain.Report{}, err
	}
	if genErr != nil {
		c.logger.Warn("report cache generation read failed", "error", genErr, "key", key)
		return rep, nil
	}
	c.store(ctx, compostID, gen, rep)
	return rep, nil
}

// store writes rep back unless the compost was invalidated after gen was read.
func (c *ReportCache) store(ctx context.Context, compostID, gen int64, rep domain.Report) {
	data, err := json.Marshal(rep)
	if err != nil {
		return
	}
	key, genKey := c.key(compostID), c.genKey(compostID)

	err = c.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := generation(tx.Get(ctx, genKey))
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleReport
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleReport), errors.Is(err, goredis.TxFailedErr):
		c.logger.Debug("skipping stale report write-back", "key", key)
	default:
		c.logger.Warn("report cache write failed", "error", err, "key", key)
	}
}

// generation reads an invalidation counter; a missing counter is zero.
func generation(cmd *goredis.StringCmd) (int64, error) {
	n, err := cmd.Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return n, err
}

// Invalidate drops the cached report for a compost and bumps its generation
// so that a report computed before the call is never written back.
func (c *ReportCache) Invalidate(ctx context.Context, compostID int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(compostID))
		pipe.Del(ctx, c.key(compostID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate report %d: %w", compostID, err)
	}
	return nil
}

// CheckReadiness pings Redis.
func (c *ReportCache) CheckReadiness(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis not ready: %w", err)
	}
	return nil
}
