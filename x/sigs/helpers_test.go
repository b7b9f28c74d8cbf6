package sigs

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/weavetest"
)

// signedTx is a mock transaction carrying a raw payload and signatures.
type signedTx struct {
	weavetest.Tx
	payload    []byte
	Signatures []*StdSignature
}

var _ SignedTx = (*signedTx)(nil)

func newSignedTx(payload []byte) *signedTx {
	msg := &weavetest.Msg{RoutePath: "test/mock", Serialized: payload}
	return &signedTx{Tx: weavetest.Tx{Msg: msg}, payload: payload}
}

func (tx *signedTx) GetSignBytes() ([]byte, error) {
	return tx.payload, nil
}

func (tx *signedTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

// sigCheckHandler stores the seen signers on each call
type sigCheckHandler struct {
	Signers []weave.Condition
}

var _ weave.Handler = (*sigCheckHandler)(nil)

func (s *sigCheckHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	s.Signers = Authenticate{}.GetConditions(ctx)
	return &weave.CheckResult{}, nil
}

func (s *sigCheckHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	s.Signers = Authenticate{}.GetConditions(ctx)
	return &weave.DeliverResult{}, nil
}
