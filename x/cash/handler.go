package cash

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x"
)

// RegisterRoutes binds the transfer message to its handler.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, bank Controller) {
	r.Handle(PathSendMsg, NewSendHandler(auth, bank))
}

// RegisterQuery exposes wallets under "/wallets".
func RegisterQuery(qr weave.QueryRouter) {
	NewBucket().Register("wallets", qr)
}

// NewSendHandler moves coins for SendMsg. Only the owner of the source
// wallet may send from it.
func NewSendHandler(auth x.Authenticator, bank Controller) weave.Handler {
	return sendHandler{auth: auth, bank: bank}
}

type sendHandler struct {
	auth x.Authenticator
	bank Controller
}

// Check does not look at balances. Those are only final on delivery.
func (h sendHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.load(ctx, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h sendHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.load(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.bank.MoveCoins(db, msg.Source, msg.Destination, *msg.Amount); err != nil {
		return nil, err
	}
	weave.GetLogger(ctx).Debug("coins sent",
		"src", msg.Source,
		"dest", msg.Destination,
		"amount", msg.Amount.String())
	return &weave.DeliverResult{}, nil
}

func (h sendHandler) load(ctx weave.Context, tx weave.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "no signature of %s", msg.Source)
	}
	return &msg, nil
}
