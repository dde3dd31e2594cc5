package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogProducer_SendMessage(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogProducer(zap.New(core))

	err := p.SendMessage(context.Background(), "audit_logs", []byte("req-1"), []byte(`{"status":200}`))
	require.NoError(t, err)

	entries := logs.FilterMessage("audit message").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "audit_logs", fields["topic"])
	assert.Equal(t, "req-1", fields["key"])
	assert.Equal(t, `{"status":200}`, fields["value"])
	assert.NoError(t, p.Close())
}

func TestLogProducer_CancelledContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogProducer(zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.SendMessage(ctx, "audit_logs", []byte("req-1"), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, logs.FilterMessage("audit message").Len())
}
