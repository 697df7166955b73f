package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/compost-norm-service/internal/domain"
	"github.com/couchcryptid/compost-norm-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// SnapshotLoader returns the compost name, norms and assignees as one
// consistent view.
type SnapshotLoader interface {
	LoadDispatchSnapshot(ctx context.Context, compostID int64) (domain.DispatchSnapshot, error)
}

// NotificationSink delivers notification intents somewhere durable.
type NotificationSink interface {
	Deliver(ctx context.Context, intent domain.NotificationIntent) error
	Name() string
}

// ReportInvalidator drops any cached report for a compost.
type ReportInvalidator interface {
	Invalidate(ctx context.Context, compostID int64) error
}

// Pipeline consumes reading-committed events and fans out notifications.
type Pipeline struct {
	extractor   BatchExtractor
	dispatcher  *Dispatcher
	sinks       []NotificationSink
	invalidator ReportInvalidator
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline. invalidator may be nil when no report cache is configured.
func New(e BatchExtractor, d *Dispatcher, sinks []NotificationSink, invalidator ReportInvalidator, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		dispatcher:  d,
		sinks:       sinks,
		invalidator: invalidator,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has processed a batch.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Run consumes batches until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize, "sinks", len(p.sinks))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-dispatch-deliver cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	for _, raw := range rawBatch {
		if !p.handle(ctx, raw) {
			return false
		}
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// handle processes one message and commits its offset. Returns false only when
// the context was cancelled before the message could be handled.
func (p *Pipeline) handle(ctx context.Context, raw domain.RawEvent) bool {
	ev, err := p.dispatcher.Decode(raw)
	if err != nil {
		p.logger.Warn("undecodable reading event, skipping message",
			"error", err,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		p.metrics.DecodeErrors.Inc()
		p.commitOffset(ctx, raw)
		return true
	}

	decision, err := p.dispatcher.Dispatch(ctx, ev)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return false
	case errors.Is(err, domain.ErrCompostNotFound):
		p.logger.Warn("reading references unknown compost, skipping message",
			"compost_id", ev.Reading.CompostID, "reading_id", ev.Reading.ID, "offset", raw.Offset)
		p.metrics.SnapshotErrors.Inc()
		p.commitOffset(ctx, raw)
		return true
	default:
		// Notifications for this reading are dropped; the reading itself is already stored.
		p.logger.Error("load dispatch snapshot failed, skipping message",
			"error", err, "compost_id", ev.Reading.CompostID, "reading_id", ev.Reading.ID, "offset", raw.Offset)
		p.metrics.SnapshotErrors.Inc()
		p.commitOffset(ctx, raw)
		return true
	}

	p.metrics.ReadingsEvaluated.Inc()
	for _, v := range decision.Violations {
		p.metrics.Violations.WithLabelValues(string(v.Param)).Inc()
	}
	p.metrics.IntentsProduced.Add(float64(len(decision.Intents)))

	for _, intent := range decision.Intents {
		p.deliver(ctx, intent)
	}
	p.invalidate(ctx, ev.Reading.CompostID)

	p.logger.Debug("reading dispatched",
		"action", ev.Action,
		"compost_id", ev.Reading.CompostID,
		"reading_id", ev.Reading.ID,
		"violations", len(decision.Violations),
		"intents", len(decision.Intents),
	)
	p.commitOffset(ctx, raw)
	return true
}

// deliver hands the intent to every sink. A failing sink never blocks the others.
func (p *Pipeline) deliver(ctx context.Context, intent domain.NotificationIntent) {
	for _, sink := range p.sinks {
		if err := sink.Deliver(ctx, intent); err != nil {
			p.logger.Error("notification delivery failed",
				"error", err,
				"sink", sink.Name(),
				"notification_id", intent.ID,
				"user_id", intent.UserID,
				"reading_id", intent.ReadingID,
			)
			p.metrics.NotificationsSent.WithLabelValues(sink.Name(), "error").Inc()
			continue
		}
		p.metrics.NotificationsSent.WithLabelValues(sink.Name(), "success").Inc()
	}
}

func (p *Pipeline) invalidate(ctx context.Context, compostID int64) {
	if p.invalidator == nil {
		return
	}
	if err := p.invalidator.Invalidate(ctx, compostID); err != nil {
		p.logger.Warn("report cache invalidation failed", "error", err, "compost_id", compostID)
	}
}

// backoffOrStop sleeps with the current backoff and advances it.
// Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
