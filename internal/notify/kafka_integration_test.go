//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"caseflow/internal/notify"
	"caseflow/internal/platform/config"
	"caseflow/internal/platform/kafka"
	"caseflow/pkg/requestcontext"
	"caseflow/pkg/testutil/containers"
)

func TestKafkaNotifierDeliversToBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.GetManager().GetRedpanda(t).Broker
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	topic := "notifications-" + uuid.NewString()[:8]

	producer, err := kafka.New(config.KafkaConfig{
		Brokers:  []string{broker},
		ClientID: "caseflow-test",
		Linger:   5 * time.Millisecond,
	}, logger)
	require.NoError(t, err)
	require.NoError(t, producer.EnsureTopics(context.Background(), 1, 1, topic))

	n := notify.NewKafka(producer, topic, logger)
	ctx := requestcontext.WithRequestID(context.Background(), "req-123")
	for _, id := range []int64{7, 7, 8} {
		n.Notify(ctx, notify.Notification{
			TemplateID:    notify.TemplateStageChanged,
			CaseID:        id,
			ClientID:      42,
			Substitutions: map[string]string{"stage": "ON_HOLD"},
		})
	}
	require.NoError(t, producer.Close(context.Background()))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var records []*kgo.Record
	for len(records) < 3 && pollCtx.Err() == nil {
		records = append(records, consumer.PollFetches(pollCtx).Records()...)
	}
	require.Len(t, records, 3)

	var got struct {
		TemplateID notify.TemplateID `json:"template_id"`
		CaseID     int64             `json:"case_id"`
		RequestID  string            `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, notify.TemplateStageChanged, got.TemplateID)
	assert.Equal(t, "req-123", got.RequestID)

	// Same key, same partition, so per-case order survives.
	assert.Equal(t, records[0].Partition, records[1].Partition)
	for _, r := range records {
		var h []string
		for _, hd := range r.Headers {
			h = append(h, hd.Key+"="+string(hd.Value))
		}
		assert.Contains(t, h, "template_id=case.stage_changed")
	}
}
