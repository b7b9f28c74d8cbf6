package app

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/codec"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/iov-one/weave-escrow/x/sigs"
)

// Tx is the envelope of every transaction. It carries the signatures of
// all signers and exactly one message.
//
// Fields:
//
//	1: repeated sigs.StdSignature signatures
//	51: cash.SendMsg
//	61: escrow.CreateMsg
//	62: escrow.FundMsg
//	63: escrow.DeliverMsg
//	64: escrow.ReleaseMsg
//	65: escrow.DisputeMsg
//	66: escrow.ResolveMsg
type Tx struct {
	Signatures []*sigs.StdSignature
	Msg        weave.Msg
}

// make sure tx fulfills all interfaces
var _ weave.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

const fieldSignatures = 1

// msgFields lists the field number of every supported message.
var msgFields = map[int]func() weave.Msg{
	51: func() weave.Msg { return new(cash.SendMsg) },
	61: func() weave.Msg { return new(escrow.CreateMsg) },
	62: func() weave.Msg { return new(escrow.FundMsg) },
	63: func() weave.Msg { return new(escrow.DeliverMsg) },
	64: func() weave.Msg { return new(escrow.ReleaseMsg) },
	65: func() weave.Msg { return new(escrow.DisputeMsg) },
	66: func() weave.Msg { return new(escrow.ResolveMsg) },
}

func msgField(m weave.Msg) (int, error) {
	switch m.(type) {
	case *cash.SendMsg:
		return 51, nil
	case *escrow.CreateMsg:
		return 61, nil
	case *escrow.FundMsg:
		return 62, nil
	case *escrow.DeliverMsg:
		return 63, nil
	case *escrow.ReleaseMsg:
		return 64, nil
	case *escrow.DisputeMsg:
		return 65, nil
	case *escrow.ResolveMsg:
		return 66, nil
	}
	return 0, errors.Wrapf(errors.ErrType, "unsupported message %T", m)
}

// NewTx wraps a message into an unsigned transaction.
func NewTx(msg weave.Msg) *Tx {
	return &Tx{Msg: msg}
}

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (weave.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, err
	}
	return tx, nil
}

// GetMsg returns the single message of this transaction.
func (tx *Tx) GetMsg() (weave.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrInput, "unable to decode")
	}
	return tx.Msg, nil
}

// GetSignatures returns all signatures.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign. Signatures are not part of
// them, so that every signer signs the same payload.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := Tx{Msg: tx.Msg}
	return unsigned.Marshal()
}

// Sign adds a signature of the given signer using its next sequence.
func (tx *Tx) Sign(signer crypto.Signer, chainID string, seq int64) error {
	sig, err := sigs.SignTx(signer, tx, chainID, seq)
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

// Marshal encodes the transaction.
func (tx *Tx) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	for _, s := range tx.Signatures {
		if s == nil {
			return nil, errors.Wrap(errors.ErrEmpty, "signature")
		}
		w.Message(fieldSignatures, s)
	}
	if tx.Msg != nil {
		field, err := msgField(tx.Msg)
		if err != nil {
			return nil, err
		}
		w.Message(field, tx.Msg)
	}
	return w.Result()
}

// Unmarshal decodes the transaction. Exactly one message must be present.
func (tx *Tx) Unmarshal(raw []byte) error {
	*tx = Tx{}
	err := codec.Decode(raw, func(f codec.Field) error {
		if f.Num == fieldSignatures {
			var s sigs.StdSignature
			if err := f.Message(&s); err != nil {
				return err
			}
			tx.Signatures = append(tx.Signatures, &s)
			return nil
		}
		newMsg, ok := msgFields[f.Num]
		if !ok {
			return nil
		}
		if tx.Msg != nil {
			return errors.Wrap(errors.ErrInput, "more than one message")
		}
		msg := newMsg()
		if err := f.Message(msg); err != nil {
			return err
		}
		tx.Msg = msg
		return nil
	})
	if err != nil {
		return err
	}
	if tx.Msg == nil {
		return errors.Wrap(errors.ErrEmpty, "message")
	}
	return nil
}
