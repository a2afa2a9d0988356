package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditpg "caseflow/pkg/platform/audit/store/postgres"
)

// OutboxStore is the subset of the Postgres audit store the relay needs.
type OutboxStore interface {
	ClaimUnpublished(ctx context.Context, limit int) ([]auditpg.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Publisher delivers one record synchronously.
type Publisher interface {
	PublishSync(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// TxRunner scopes one relay batch to a transaction so claimed rows stay locked
// until they are marked published.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Relay polls the outbox and publishes audit events to per-category topics.
type Relay struct {
	store       OutboxStore
	publisher   Publisher
	tx          TxRunner
	topicPrefix string
	interval    time.Duration
	batchSize   int
	logger      *slog.Logger
}

func NewRelay(store OutboxStore, publisher Publisher, tx TxRunner, topicPrefix string, interval time.Duration, batchSize int, logger *slog.Logger) *Relay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Relay{
		store:       store,
		publisher:   publisher,
		tx:          tx,
		topicPrefix: topicPrefix,
		interval:    interval,
		batchSize:   batchSize,
		logger:      logger,
	}
}

// Topic returns the Kafka topic for an audit category.
func (r *Relay) Topic(category string) string {
	return r.topicPrefix + ".audit." + category
}

func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := r.RelayOnce(ctx)
			if err != nil {
				r.logger.ErrorContext(ctx, "outbox relay batch failed", "error", err)
				continue
			}
			if n > 0 {
				r.logger.DebugContext(ctx, "outbox relay batch published", "count", n)
			}
		}
	}
}

// RelayOnce publishes one batch. A publish failure aborts the batch; the rows stay
// unpublished and are retried on the next tick.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	published := 0
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		entries, err := r.store.ClaimUnpublished(ctx, r.batchSize)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(entries))
		for _, e := range entries {
			headers := map[string]string{"event_type": e.EventType}
			if err := r.publisher.PublishSync(ctx, r.Topic(e.Category), []byte(e.AggregateID), e.Payload, headers); err != nil {
				return err
			}
			ids = append(ids, e.ID)
		}
		if err := r.store.MarkPublished(ctx, ids, time.Now()); err != nil {
			return err
		}
		published = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}
