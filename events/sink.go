/*
Package events publishes the events emitted by committed transactions to
external consumers.

A Sink receives the events of one block at a time, after the block was
committed. Publishing is best effort: a failing sink never rolls back
state, the application only logs the failure.
*/
package events

import (
	"context"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Sink receives committed events.
type Sink interface {
	Publish(ctx context.Context, events []weave.Event) error
}

// NopSink drops all events.
type NopSink struct{}

var _ Sink = NopSink{}

// Publish implements Sink.
func (NopSink) Publish(context.Context, []weave.Event) error {
	return nil
}

// LogSink writes every event to a logger at info level.
type LogSink struct {
	logger log.Logger
}

var _ Sink = (*LogSink)(nil)

// NewLogSink returns a sink writing to the given logger.
func NewLogSink(logger log.Logger) *LogSink {
	return &LogSink{logger: logger.With("module", "events")}
}

// Publish implements Sink.
func (s *LogSink) Publish(ctx context.Context, events []weave.Event) error {
	height, _ := weave.GetHeight(ctx)
	for _, e := range events {
		s.logger.Info("event",
			"height", height,
			"tag", e.Tag(),
			"key", e.Key,
			"payload", e.Payload)
	}
	return nil
}

// MultiSink fans events out to several sinks. All sinks are called even
// if some of them fail; the failures are returned together.
type MultiSink []Sink

var _ Sink = MultiSink(nil)

// Publish implements Sink.
func (m MultiSink) Publish(ctx context.Context, events []weave.Event) error {
	var err error
	for _, s := range m {
		err = errors.Append(err, s.Publish(ctx, events))
	}
	return err
}
