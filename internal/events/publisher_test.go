package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{w: w}
	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

	err := p.Publish(context.Background(), Outcome{
		SessionID:  "sess-1",
		Query:      "Where can I find my receipt?",
		Category:   "Billing",
		Sentiment:  "Neutral",
		Success:    true,
		StepCount:  4,
		LatencyMS:  1200,
		ResolvedAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "sess-1", string(w.msgs[0].Key))
	assert.True(t, w.msgs[0].Time.Equal(at))

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "Billing", got["category"])
	assert.Equal(t, float64(4), got["step_count"])
	assert.NotContains(t, got, "error_message")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{w: &recordingWriter{err: errors.New("broker down")}}
	err := p.Publish(context.Background(), Outcome{SessionID: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Outcome{}))
	assert.NoError(t, p.Close())
}
