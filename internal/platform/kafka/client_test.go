package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"caseflow/pkg/platform/circuit"
)

func TestRecordDeliveryDrivesHealth(t *testing.T) {
	p := &Producer{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		breaker: circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1)),
	}
	rec := &kgo.Record{Topic: "caseflow.notifications", Key: []byte("7")}

	p.recordDelivery(rec, errors.New("broker unavailable"))
	assert.False(t, p.breaker.IsOpen())
	p.recordDelivery(rec, errors.New("broker unavailable"))
	require.True(t, p.breaker.IsOpen())

	err := p.Health(context.Background())
	require.Error(t, err, "an open breaker fails readiness without touching the broker")

	p.recordDelivery(rec, nil)
	assert.False(t, p.breaker.IsOpen())
}

func TestNewRecordCopiesHeaders(t *testing.T) {
	rec := newRecord("t", []byte("k"), []byte("v"), map[string]string{"template_id": "case.rejected"})

	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "template_id", rec.Headers[0].Key)
	assert.Equal(t, "case.rejected", string(rec.Headers[0].Value))
}
