package escrow

import (
	"encoding/binary"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x"
	"github.com/iov-one/weave-escrow/x/cash"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r weave.Registry, auth x.Authenticator, bank cash.CoinMover) {
	ctrl := NewController(NewBucket(), x.AuthorizerFrom(auth), bank)
	r.Handle(PathCreateMsg, CreateHandler{ctrl})
	r.Handle(PathFundMsg, FundHandler{ctrl})
	r.Handle(PathDeliverMsg, DeliverHandler{ctrl})
	r.Handle(PathReleaseMsg, ReleaseHandler{ctrl})
	r.Handle(PathDisputeMsg, DisputeHandler{ctrl})
	r.Handle(PathResolveMsg, ResolveHandler{ctrl})
}

// RegisterQuery will register this bucket as "/escrows", every index
// as "/escrows/<role>" and the counter as "/escrows/count"
func RegisterQuery(qr weave.QueryRouter) {
	b := NewBucket()
	b.Register("escrows", qr)
	qr.Register("/escrows/count", countQuery{bucket: b})
}

// operation runs a single controller call for a decoded message.
type operation func(ctx weave.Context, db weave.KVStore) (*Escrow, error)

// check runs op against a scratch copy of db so that all preconditions are
// verified without touching the state.
func check(ctx weave.Context, db weave.KVStore, op operation) (*weave.CheckResult, error) {
	if cdb, ok := db.(weave.CacheableKVStore); ok {
		cache := cdb.CacheWrap()
		defer cache.Discard()
		db = cache
	}
	// Events of a dry run are dropped.
	ctx = weave.WithEventBuffer(ctx, &weave.EventBuffer{})
	e, err := op(ctx, db)
	if err != nil {
		return nil, err
	}
	return &weave.CheckResult{Data: []byte(e.ID)}, nil
}

func deliver(ctx weave.Context, db weave.KVStore, topic string, op operation) (*weave.DeliverResult, error) {
	e, err := op(ctx, db)
	if err != nil {
		return nil, err
	}
	weave.GetLogger(ctx).Debug("escrow updated", "id", e.ID, "op", topic)
	return &weave.DeliverResult{Data: []byte(e.ID), Log: topic}, nil
}

// CreateHandler opens new escrows.
type CreateHandler struct {
	ctrl Controller
}

var _ weave.Handler = CreateHandler{}

// Check verifies the escrow can be created.
func (h CreateHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	op, err := h.op(tx)
	if err != nil {
		return nil, err
	}
	return check(ctx, db, op)
}

// Deliver stores the new escrow.
func (h CreateHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	op, err := h.op(tx)
	if err != nil {
		return nil, err
	}
	return deliver(ctx, db, TopicCreated, op)
}

func (h CreateHandler) op(tx weave.Tx) (operation, error) {
	var msg CreateMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return func(ctx weave.Context, db weave.KVStore) (*Escrow, error) {
		return h.ctrl.Create(ctx, db, msg.EscrowID, msg.Client, msg.Freelancer, *msg.Amount, msg.Arbiter)
	}, nil
}

// FundHandler moves the escrow amount into custody.
type FundHandler struct {
	ctrl Controller
}

var _ weave.Handler = FundHandler{}

// Check verifies the escrow can be funded.
func (h FundHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	op, err := h.op(tx)
	if err != nil {
		return nil, err
	}
	return check(ctx, db, op)
}

// Deliver funds the escrow.
func (h FundHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	op, err := h.op(tx)
	if err != nil {
		return nil, err
	}
	return deliver(ctx, db, TopicFunded, op)
}

func (h FundHandler) op(tx weave.Tx) (operation, error) {
	var msg FundMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return func(ctx weave.Context, db weave.KVStore) (*Escrow, error) {
		return h.ctrl.Fund(ctx, db, msg.EscrowID)
	}, nil
}

// DeliverHandler marks the work as delivered.
type DeliverHandler struct {
	ctrl Controller
}

var _ weave.Handler = DeliverHandler{}

// Check verifies the delivery can be recorded.
func (h DeliverHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	op, err := h.op(tx)
	if err != nil {
		return nil, err
	}
	return check(ctx, db, op)
}

// Deliver records the delivery.
func (h DeliverHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	op, err := h.op(tx)
	if err != nil {
		return nil, err
	}
	return deliver(ctx, db, TopicDelivered, op)
}

func (h DeliverHandler) op(tx weave.Tx) (operation, error) {
	var msg DeliverMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return func(ctx weave.Context, db weave.KVStore) (*Escrow, error) {
		return h.ctrl.Deliver(ctx, db, msg.EscrowID, msg.Note)
	}, nil
}

// ReleaseHandler pays the freelancer.
type ReleaseHandler struct {
	ctrl Controller
}

var _ weave.Handler = ReleaseHandler{}

// Check verifies the escrow can be released.
func (h ReleaseHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	op, err := h.op(tx)
	if err != nil {
		return nil, err
	}
	return check(ctx, db, op)
}

// Deliver releases the escrow.
func (h ReleaseHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	op, err := h.op(tx)
	if err != nil {
		return nil, err
	}
	return deliver(ctx, db, TopicReleased, op)
}

func (h ReleaseHandler) op(tx weave.Tx) (operation, error) {
	var msg ReleaseMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return func(ctx weave.Context, db weave.KVStore) (*Escrow, error) {
		return h.ctrl.Release(ctx, db, msg.EscrowID)
	}, nil
}

// DisputeHandler raises disputes.
type DisputeHandler struct {
	ctrl Controller
}

var _ weave.Handler = DisputeHandler{}

// Check verifies the escrow can be disputed.
func (h DisputeHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	op, err := h.op(tx)
	if err != nil {
		return nil, err
	}
	return check(ctx, db, op)
}

// Deliver marks the escrow as disputed.
func (h DisputeHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	op, err := h.op(tx)
	if err != nil {
		return nil, err
	}
	return deliver(ctx, db, TopicDisputed, op)
}

func (h DisputeHandler) op(tx weave.Tx) (operation, error) {
	var msg DisputeMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return func(ctx weave.Context, db weave.KVStore) (*Escrow, error) {
		return h.ctrl.Dispute(ctx, db, msg.EscrowID, msg.Reason)
	}, nil
}

// ResolveHandler applies the arbiter decision.
type ResolveHandler struct {
	ctrl Controller
}

var _ weave.Handler = ResolveHandler{}

// Check verifies the escrow can be resolved.
func (h ResolveHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	op, err := h.op(tx)
	if err != nil {
		return nil, err
	}
	return check(ctx, db, op)
}

// Deliver pays the party chosen by the arbiter.
func (h ResolveHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	op, err := h.op(tx)
	if err != nil {
		return nil, err
	}
	return deliver(ctx, db, TopicResolved, op)
}

func (h ResolveHandler) op(tx weave.Tx) (operation, error) {
	var msg ResolveMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return func(ctx weave.Context, db weave.KVStore) (*Escrow, error) {
		return h.ctrl.Resolve(ctx, db, msg.EscrowID, msg.PayFreelancer)
	}, nil
}

// countQuery serves the escrow counter as a single big endian uint32.
type countQuery struct {
	bucket Bucket
}

var _ weave.QueryHandler = countQuery{}

func (q countQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	n, err := q.bucket.Count(db)
	if err != nil {
		return nil, err
	}
	return []weave.Model{weave.Pair([]byte("count"), encodeCount(n))}, nil
}

func encodeCount(n uint32) []byte {
	raw := make([]byte, 4)
	binary.BigEndian.PutUint32(raw, n)
	return raw
}

// DecodeCount parses the value returned by the "/escrows/count" query.
func DecodeCount(raw []byte) (uint32, error) {
	if len(raw) != 4 {
		return 0, errors.Wrapf(errors.ErrInput, "count must be 4 bytes, got %d", len(raw))
	}
	return binary.BigEndian.Uint32(raw), nil
}
