package utils

import (
	"time"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// ActionKey is the tag key holding the path of a delivered message. Clients
// subscribe to "action='escrow/release'" to follow every payout.
const ActionKey = "action"

// ActionTagger tags every successful delivery with the message path.
type ActionTagger struct{}

var _ weave.Decorator = ActionTagger{}

func NewActionTagger() ActionTagger { return ActionTagger{} }

func (ActionTagger) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

func (ActionTagger) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	// A transaction without a message never reaches the handler.
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res.Tags = append(res.Tags, weave.Tag(ActionKey, msg.Path()))
	return res, nil
}

// Logging reports every processed transaction together with its path and
// execution time. Successful checks are logged on debug level only.
type Logging struct{}

var _ weave.Decorator = Logging{}

func NewLogging() Logging { return Logging{} }

func (Logging) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	done := track(ctx, tx, true)
	res, err := next.Check(ctx, db, tx)
	if err != nil {
		done("", err)
		return nil, err
	}
	done(res.Log, nil)
	return res, nil
}

func (Logging) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	done := track(ctx, tx, false)
	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		done("", err)
		return nil, err
	}
	done(res.Log, nil)
	return res, nil
}

// track starts the clock for a single transaction and returns the function
// writing the log entry once the result is known.
func track(ctx weave.Context, tx weave.Tx, check bool) func(string, error) {
	start := time.Now()
	return func(msg string, err error) {
		logger := weave.GetLogger(ctx).With(
			"path", weave.GetPath(tx),
			"took", time.Since(start).String(),
		)
		// An empty message is still logged for the path and timing.
		switch {
		case err != nil:
			logger.Error(msg, "err", err)
		case check:
			logger.Debug(msg)
		default:
			logger.Info(msg)
		}
	}
}

// Recovery converts a handler panic into an ErrPanic failure so that a
// single broken transaction cannot stop the node.
type Recovery struct{}

var _ weave.Decorator = Recovery{}

func NewRecovery() Recovery { return Recovery{} }

func (Recovery) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (res *weave.CheckResult, err error) {
	defer reportPanic(ctx, tx, &err)
	defer errors.Recover(&err)
	return next.Check(ctx, db, tx)
}

func (Recovery) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (res *weave.DeliverResult, err error) {
	defer reportPanic(ctx, tx, &err)
	defer errors.Recover(&err)
	return next.Deliver(ctx, db, tx)
}

// reportPanic logs the recovered panic. The client only receives a
// redacted error.
func reportPanic(ctx weave.Context, tx weave.Tx, err *error) {
	if !errors.ErrPanic.Is(*err) {
		return
	}
	weave.GetLogger(ctx).Error("handler panic", "path", weave.GetPath(tx), "err", *err)
}
