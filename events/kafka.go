package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafka.Writer used by the sink.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes every event as a JSON message to a Kafka topic. The
// message key is the event key so that all events about one escrow land
// in the same partition and keep their order.
type KafkaSink struct {
	writer messageWriter
}

var _ Sink = (*KafkaSink)(nil)

// NewKafkaSink returns a sink producing to the given topic.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "kafka brokers")
	}
	if topic == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "kafka topic")
	}
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}, nil
}

// Publish implements Sink. All events of a block are written in a single
// batch.
func (s *KafkaSink) Publish(ctx context.Context, events []weave.Event) error {
	if len(events) == 0 {
		return nil
	}
	var headers []kafka.Header
	if height, ok := weave.GetHeight(ctx); ok {
		headers = append(headers, kafka.Header{
			Key:   "height",
			Value: []byte(strconv.FormatInt(height, 10)),
		})
	}

	msgs := make([]kafka.Message, len(events))
	for i, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return errors.Wrapf(errors.ErrInput, "event %s: %s", e.Tag(), err)
		}
		msgs[i] = kafka.Message{
			Key:     []byte(e.Key),
			Value:   value,
			Headers: headers,
		}
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return errors.Wrap(err, "kafka write")
	}
	return nil
}

// Close flushes pending messages and releases the connection.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
