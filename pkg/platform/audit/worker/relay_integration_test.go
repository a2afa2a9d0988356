//go:build integration

package worker_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"caseflow/internal/platform/kafka"
	"caseflow/pkg/platform/audit"
	auditpg "caseflow/pkg/platform/audit/store/postgres"
	"caseflow/pkg/platform/audit/worker"
	"caseflow/pkg/platform/tx"
	"caseflow/pkg/testutil/containers"
)

type RelaySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	broker   string
	store    *auditpg.Store
	producer *kafka.Producer
	prefix   string
	relay    *worker.Relay
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.broker = mgr.GetRedpanda(s.T()).Broker
	s.store = auditpg.New(s.postgres.DB)

	client, err := kgo.NewClient(kgo.SeedBrokers(s.broker), kgo.AllowAutoTopicCreation())
	s.Require().NoError(err)
	s.producer = kafka.NewFromClient(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *RelaySuite) TearDownSuite() {
	_ = s.producer.Close(context.Background())
}

func (s *RelaySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox"))
	// A fresh prefix per test keeps topics from leaking records between tests.
	s.prefix = "relay-" + uuid.NewString()[:8]
	s.relay = worker.NewRelay(s.store, s.producer, tx.NewPostgresRunner(s.postgres.DB, 5*time.Second),
		s.prefix, 50*time.Millisecond, 10, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *RelaySuite) consume(topic string, want int) []*kgo.Record {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var records []*kgo.Record
	for len(records) < want {
		fetches := client.PollFetches(ctx)
		if ctx.Err() != nil {
			break
		}
		records = append(records, fetches.Records()...)
	}
	return records
}

func (s *RelaySuite) TestPublishesToCategoryTopicsAndMarksRows() {
	ctx := context.Background()
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		CaseID: 17, ClientID: 42, ActorID: "ana",
		Action: string(audit.EventCaseConverted), FromStage: "QUALIFICATION", ToStage: "BUDGET_APPROVED",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		CaseID: 17, ClientID: 42, ActorID: "ana",
		Action: string(audit.EventProhibitedCountry), Reason: "KP", ClientIP: "203.0.113.9",
	}))

	n, err := s.relay.RelayOnce(ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	compliance := s.consume(s.relay.Topic(string(audit.CategoryCompliance)), 1)
	s.Require().Len(compliance, 1)
	s.Equal("17", string(compliance[0].Key))
	var payload map[string]any
	s.Require().NoError(json.Unmarshal(compliance[0].Value, &payload))
	s.Equal("BUDGET_APPROVED", payload["to_stage"])

	security := s.consume(s.relay.Topic(string(audit.CategorySecurity)), 1)
	s.Require().Len(security, 1)

	again, err := s.relay.RelayOnce(ctx)
	s.Require().NoError(err)
	s.Zero(again, "published rows are not relayed twice")
}

func (s *RelaySuite) TestEventsWrittenInRolledBackTransactionAreNeverPublished() {
	ctx := context.Background()
	runner := tx.NewPostgresRunner(s.postgres.DB, 5*time.Second)
	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Append(ctx, audit.Event{CaseID: 18, ClientID: 42, Action: string(audit.EventCaseRejected)}); err != nil {
			return err
		}
		return context.DeadlineExceeded
	})
	s.Require().Error(err)

	n, err := s.relay.RelayOnce(ctx)
	s.Require().NoError(err)
	s.Zero(n)
}
