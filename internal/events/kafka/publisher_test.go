package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-petr/pet-exchange/internal/events"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}

	w.msgs = append(w.msgs, msgs...)

	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	e := events.New(events.WithdrawalCreated, "alice", map[string]string{"id": "42"})

	require.NoError(t, p.Publish(context.Background(), e))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	require.Equal(t, []byte("alice"), msg.Key)
	require.Equal(t, "type", msg.Headers[0].Key)
	require.Equal(t, []byte(events.WithdrawalCreated), msg.Headers[0].Value)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	require.Equal(t, string(events.WithdrawalCreated), got["type"])
	require.Equal(t, "alice", got["key"])

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestPublishWriterError(t *testing.T) {
	p := &Publisher{writer: &fakeWriter{err: errors.New("leader not available")}}

	err := p.Publish(context.Background(), events.New(events.SwapExecuted, "bob", nil))
	require.EqualError(t, err, "leader not available")
}
