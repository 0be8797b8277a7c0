package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/localift/engage/internal/shared/infrastructure/convert"
	"github.com/localift/engage/internal/shared/infrastructure/eventbus"
	"github.com/localift/engage/pkg/observability"
)

// ProcessorConfig tunes the relay loop.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

// DefaultProcessorConfig returns the defaults the container uses when the
// environment does not override them.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: 1 * time.Second,
		RetryBackoffMax:  1 * time.Minute,
	}
}

// Processor is the relay half of the outbox. It polls for unpublished
// messages and pushes them to the event publisher, retrying with
// exponential backoff and dead-lettering messages that keep failing.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics

	wg      sync.WaitGroup
	quit    chan struct{}
	running bool
	mu      sync.Mutex

	statsMu sync.Mutex
	stats   Stats
}

// NewProcessor creates a processor. Metrics default to noop until
// WithMetrics is called.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   observability.NoopMetrics{},
		quit:      make(chan struct{}),
	}
}

// WithMetrics sets the metrics collector used for publish counters and lag.
func (p *Processor) WithMetrics(metrics observability.Metrics) *Processor {
	if metrics != nil {
		p.metrics = metrics
	}
	return p
}

// Start launches the polling loop in a goroutine and returns immediately.
// Starting a running processor is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.quit = make(chan struct{})
	p.mu.Unlock()

	p.wg.Add(1)
	go p.poll(ctx)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)
	return nil
}

// Stop signals the loop and waits for it to exit.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.quit)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the polling loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// ProcessOnce drains a single batch synchronously. Used by tests and the
// relay's drain-on-shutdown path.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	return p.drainBatch(ctx)
}

func (p *Processor) poll(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case <-ticker.C:
			if err := p.drainBatch(ctx); err != nil {
				p.logger.Error("failed to process outbox batch", "error", err)
			}
		}
	}
}

func (p *Processor) drainBatch(ctx context.Context) error {
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.noteError(err)
		return err
	}

	p.noteBatch(messages)

	for _, msg := range messages {
		p.relay(ctx, msg)
	}
	return nil
}

// relay publishes one message and records the outcome. A publish failure
// never aborts the batch; the message is retried or dead-lettered and the
// loop moves on.
func (p *Processor) relay(ctx context.Context, msg *Message) {
	body, err := msg.Envelope()
	if err == nil {
		err = p.publisher.Publish(ctx, msg.RoutingKey, body)
	}
	if err != nil {
		p.handleFailure(ctx, msg, err)
		return
	}

	if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
		p.logger.Error("failed to mark message as published",
			"id", msg.ID,
			"event_id", msg.EventID,
			"error", err,
		)
		return
	}
	p.notePublished(msg.RoutingKey)
}

func (p *Processor) handleFailure(ctx context.Context, msg *Message, pubErr error) {
	correlationID, causationID, locationID := msg.Trace()
	p.logger.Warn("failed to publish message",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"correlation_id", correlationID,
		"causation_id", causationID,
		"location_id", locationID,
		"error", pubErr,
	)

	if p.exhausted(msg) {
		p.noteDead(pubErr, msg.RoutingKey)
		if err := p.repo.MarkDead(ctx, msg.ID, pubErr.Error()); err != nil {
			p.logger.Error("failed to mark message as dead-lettered",
				"id", msg.ID,
				"error", err,
			)
		}
		return
	}

	p.noteFailed(pubErr)
	nextRetryAt := time.Now().Add(p.backoff(msg.RetryCount + 1))
	if err := p.repo.MarkFailed(ctx, msg.ID, pubErr.Error(), nextRetryAt); err != nil {
		p.logger.Error("failed to mark message as failed",
			"id", msg.ID,
			"error", err,
		)
	}
}

// exhausted reports whether the upcoming attempt would reach MaxRetries.
func (p *Processor) exhausted(msg *Message) bool {
	if p.config.MaxRetries <= 0 {
		return true
	}
	return msg.RetryCount+1 >= p.config.MaxRetries
}

// backoff doubles per attempt from RetryBackoffBase, clamped at
// RetryBackoffMax.
func (p *Processor) backoff(nextRetryCount int) time.Duration {
	base := p.config.RetryBackoffBase
	if base <= 0 {
		base = time.Second
	}
	limit := p.config.RetryBackoffMax
	if limit <= 0 {
		limit = time.Minute
	}
	if nextRetryCount < 1 {
		nextRetryCount = 1
	}

	delay := base * time.Duration(1<<convert.IntToUintSafe(nextRetryCount-1))
	if delay > limit {
		return limit
	}
	return delay
}

// Stats is a snapshot of relay progress for health endpoints and the CLI.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

// GetStats returns the current snapshot.
func (p *Processor) GetStats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	snapshot := p.stats
	snapshot.IsRunning = p.IsRunning()
	return snapshot
}

func (p *Processor) notePublished(routingKey string) {
	p.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", routingKey))

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.PublishedCount++
}

func (p *Processor) noteFailed(err error) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.FailedCount++
	p.stampError(err)
}

func (p *Processor) noteDead(err error, routingKey string) {
	p.metrics.Counter(observability.MetricOutboxDeadLettered, 1, observability.T("routing_key", routingKey))

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.DeadCount++
	p.stampError(err)
}

func (p *Processor) noteError(err error) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stampError(err)
}

// stampError must be called with statsMu held.
func (p *Processor) stampError(err error) {
	now := time.Now()
	p.stats.LastError = err.Error()
	p.stats.LastErrorAt = &now
}

// noteBatch stamps the poll time and recomputes publish lag from the
// oldest message still waiting.
func (p *Processor) noteBatch(messages []*Message) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	now := time.Now()
	p.stats.LastProcessedAt = &now

	if len(messages) == 0 {
		p.stats.LagSeconds = 0
		p.stats.OldestMessageAt = nil
		p.metrics.Gauge(observability.MetricOutboxLag, 0)
		return
	}

	oldest := messages[0].CreatedAt
	for _, msg := range messages[1:] {
		if msg.CreatedAt.Before(oldest) {
			oldest = msg.CreatedAt
		}
	}
	p.stats.OldestMessageAt = &oldest
	p.stats.LagSeconds = now.Sub(oldest).Seconds()
	p.metrics.Gauge(observability.MetricOutboxLag, p.stats.LagSeconds)
}
