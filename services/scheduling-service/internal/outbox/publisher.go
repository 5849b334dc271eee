package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/techsched/libs/db"
	"github.com/md-rashed-zaman/techsched/libs/kafkax"
	otelx "github.com/md-rashed-zaman/techsched/libs/otel"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	pool    *db.Pool
	repo    *Repository
	logger  *slog.Logger
	brokers []string
	cfg     PublisherConfig
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
	// MaxAttempts parks an event after that many failed writes.
	MaxAttempts int
	// Retention is how long published events are kept. Zero keeps them forever.
	Retention time.Duration
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 20
	}
	return &Publisher{
		pool:    pool,
		repo:    repo,
		logger:  logger,
		brokers: kafkax.SplitBrokers(cfg.Brokers),
		cfg:     cfg,
	}
}

// Run drains the outbox every PollEvery until ctx is done. Without brokers
// events accumulate and are published once a broker is configured.
func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	ticker := time.NewTicker(p.cfg.PollEvery)
	defer ticker.Stop()

	var purge <-chan time.Time
	if p.cfg.Retention > 0 {
		purgeTicker := time.NewTicker(time.Hour)
		defer purgeTicker.Stop()
		purge = purgeTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.publishBatch(ctx, writer); err != nil {
				p.logger.Error("outbox publish failed", "err", err)
			}
		case now := <-purge:
			n, err := p.repo.PurgePublished(ctx, p.pool, now.Add(-p.cfg.Retention))
			if err != nil {
				p.logger.Error("outbox purge failed", "err", err)
				continue
			}
			if n > 0 {
				p.logger.Info("outbox purged", "rows", n)
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context, writer MessageWriter) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, err := p.repo.FetchUnpublished(ctx, tx, p.cfg.BatchSize, p.cfg.MaxAttempts)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return tx.Commit(ctx)
	}

	msgs := make([]kafka.Message, 0, len(records))
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		msgs = append(msgs, ToMessage(ctx, r))
		ids = append(ids, r.ID)
		if r.Attempts+1 == p.cfg.MaxAttempts {
			p.logger.Warn("outbox event on last attempt", "event_id", r.EventID, "event_type", r.EventType)
		}
	}
	if werr := writer.WriteMessages(ctx, msgs...); werr != nil {
		if err := p.repo.MarkFailed(ctx, tx, ids, werr); err != nil {
			return errors.Join(werr, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return errors.Join(werr, err)
		}
		return fmt.Errorf("write %d events: %w", len(msgs), werr)
	}
	if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ToMessage builds the Kafka message for a record, restoring the trace
// context captured when the event was written.
func ToMessage(ctx context.Context, r Record) kafka.Message {
	msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
	msg := kafka.Message{
		Topic: r.EventType,
		Key:   []byte(r.AggregateID),
		Value: r.Payload,
		Headers: kafkax.MetaHeaders(kafkax.EventMeta{
			EventID:   r.EventID,
			EventType: r.EventType,
		}),
	}
	msg.Headers = kafkax.InjectTraceHeaders(msgCtx, msg.Headers)
	return msg
}
