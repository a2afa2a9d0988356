package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"caseflow/internal/platform/config"
	"caseflow/pkg/platform/circuit"
	strs "caseflow/pkg/platform/strings"
)

// Producer wraps a franz-go client for the two publishing paths this service
// has: synchronous outbox relay and asynchronous notifications.
type Producer struct {
	client  *kgo.Client
	logger  *slog.Logger
	breaker *circuit.Breaker
}

// New creates a producer from configuration. Returns nil when no brokers are
// configured so callers can fall back to logging sinks.
func New(cfg config.KafkaConfig, logger *slog.Logger) (*Producer, error) {
	brokers := strs.DedupeAndTrim(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(cfg.Linger),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}
	return NewFromClient(client, logger), nil
}

// NewFromClient wraps an existing client. Used by integration tests.
func NewFromClient(client *kgo.Client, logger *slog.Logger) *Producer {
	return &Producer{client: client, logger: logger, breaker: circuit.New("kafka-async")}
}

// EnsureTopics creates topics that do not exist yet. Existing topics are left untouched.
func (p *Producer) EnsureTopics(ctx context.Context, partitions int32, replication int16, topics ...string) error {
	adm := kadm.NewClient(p.client)
	resps, err := adm.CreateTopics(ctx, partitions, replication, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, r := range resps.Sorted() {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// PublishSync produces one record and waits for the broker acknowledgement.
func (p *Producer) PublishSync(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	rec := newRecord(topic, key, value, headers)
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// PublishAsync produces one record without waiting. Delivery failures are logged.
func (p *Producer) PublishAsync(ctx context.Context, topic string, key, value []byte, headers map[string]string) {
	rec := newRecord(topic, key, value, headers)
	p.client.Produce(ctx, rec, func(r *kgo.Record, err error) {
		p.recordDelivery(r, err)
	})
}

// recordDelivery feeds async delivery results into the breaker. Records are
// still attempted while it is open; the breaker only drives readiness and logs.
func (p *Producer) recordDelivery(r *kgo.Record, err error) {
	if err == nil {
		if _, change := p.breaker.RecordSuccess(); change.Closed && p.logger != nil {
			p.logger.Info("kafka async delivery recovered", "breaker", p.breaker.Name())
		}
		return
	}
	_, change := p.breaker.RecordFailure()
	if p.logger == nil {
		return
	}
	p.logger.Warn("kafka async produce failed",
		"topic", r.Topic,
		"key", string(r.Key),
		"error", err,
	)
	if change.Opened {
		p.logger.Error("kafka async delivery degraded, notifications are failing",
			"breaker", p.breaker.Name(),
		)
	}
}

// Health checks broker connectivity and reports recent async delivery failures.
func (p *Producer) Health(ctx context.Context) error {
	if p.breaker.IsOpen() {
		return errors.New("kafka async delivery circuit open")
	}
	return p.client.Ping(ctx)
}

// Close flushes buffered records and closes the client.
func (p *Producer) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}

func newRecord(topic string, key, value []byte, headers map[string]string) *kgo.Record {
	rec := &kgo.Record{Topic: topic, Key: key, Value: value}
	for k, v := range headers {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	return rec
}
