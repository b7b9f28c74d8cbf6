package events

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

var blockEvents = []weave.Event{
	{Module: "escrow", Topic: "created", Key: "e1", Payload: "client"},
	{Module: "escrow", Topic: "deliver", Key: "e1", Payload: true},
}

func TestLogSink(t *testing.T) {
	var out bytes.Buffer
	sink := NewLogSink(log.NewTMLogger(log.NewSyncWriter(&out)))

	ctx := weave.WithHeight(context.Background(), 12)
	require.NoError(t, sink.Publish(ctx, blockEvents))
	assert.Contains(t, out.String(), "tag=escrow.created")
	assert.Contains(t, out.String(), "tag=escrow.deliver")
	assert.Contains(t, out.String(), "height=12")
}

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSink(t *testing.T) {
	w := &recordingWriter{}
	sink := &KafkaSink{writer: w}

	ctx := weave.WithHeight(context.Background(), 7)
	require.NoError(t, sink.Publish(ctx, blockEvents))
	require.Len(t, w.msgs, 2)

	first := w.msgs[0]
	assert.Equal(t, "e1", string(first.Key))
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(first.Value, &got))
	assert.Equal(t, "escrow", got["module"])
	assert.Equal(t, "created", got["topic"])
	assert.Equal(t, "client", got["payload"])
	require.Len(t, first.Headers, 1)
	assert.Equal(t, "7", string(first.Headers[0].Value))

	// Nothing is written for an empty block.
	require.NoError(t, sink.Publish(ctx, nil))
	assert.Len(t, w.msgs, 2)

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestKafkaSinkFailure(t *testing.T) {
	sink := &KafkaSink{writer: &recordingWriter{err: errors.ErrDatabase}}
	err := sink.Publish(context.Background(), blockEvents)
	assert.True(t, errors.ErrDatabase.Is(err))
}

func TestNewKafkaSinkRequiresConfig(t *testing.T) {
	_, err := NewKafkaSink(nil, "escrow")
	assert.True(t, errors.ErrEmpty.Is(err))
	_, err = NewKafkaSink([]string{"localhost:9092"}, "")
	assert.True(t, errors.ErrEmpty.Is(err))

	sink, err := NewKafkaSink([]string{"localhost:9092"}, "escrow")
	require.NoError(t, err)
	assert.NotNil(t, sink.writer)
}

type failingSink struct{ err error }

func (s failingSink) Publish(context.Context, []weave.Event) error { return s.err }

func TestMultiSink(t *testing.T) {
	w := &recordingWriter{}
	m := MultiSink{
		failingSink{err: errors.ErrDatabase},
		&KafkaSink{writer: w},
		NopSink{},
	}
	err := m.Publish(context.Background(), blockEvents)
	assert.True(t, errors.ErrDatabase.Is(err))
	// A failing sink does not stop the others.
	assert.Len(t, w.msgs, 2)

	assert.NoError(t, MultiSink{NopSink{}}.Publish(context.Background(), blockEvents))
}
