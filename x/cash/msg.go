package cash

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/codec"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
)

// PathSendMsg is the route of SendMsg.
const PathSendMsg = "cash/send"

const maxMemoSize int = 128

// SendMsg moves coins from one wallet to another.
//
// Fields:
//
//	1: bytes source
//	2: bytes destination
//	3: coin.Coin amount
//	4: string memo
type SendMsg struct {
	Source      weave.Address
	Destination weave.Address
	Amount      *coin.Coin
	Memo        string
}

// Ensure we implement the Msg interface
var _ weave.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return PathSendMsg
}

// Validate makes sure that this is sensible
func (m *SendMsg) Validate() error {
	var err error
	if coin.IsEmpty(m.Amount) || !m.Amount.IsPositive() {
		err = errors.AppendField(err, "Amount", errors.Wrap(errors.ErrAmount, "non-positive amount"))
	} else {
		err = errors.AppendField(err, "Amount", m.Amount.Validate())
	}
	err = errors.AppendField(err, "Source", m.Source.Validate())
	err = errors.AppendField(err, "Destination", m.Destination.Validate())
	if len(m.Memo) > maxMemoSize {
		err = errors.AppendField(err, "Memo", errors.Wrap(errors.ErrInput, "memo too long"))
	}
	return err
}

// Marshal encodes the message.
func (m *SendMsg) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.Bytes(1, m.Source)
	w.Bytes(2, m.Destination)
	if m.Amount != nil {
		w.Message(3, m.Amount)
	}
	w.String(4, m.Memo)
	return w.Result()
}

// Unmarshal decodes the message.
func (m *SendMsg) Unmarshal(raw []byte) error {
	*m = SendMsg{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			m.Source, err = f.Bytes()
		case 2:
			m.Destination, err = f.Bytes()
		case 3:
			m.Amount = new(coin.Coin)
			err = f.Message(m.Amount)
		case 4:
			m.Memo, err = f.String()
		}
		return err
	})
}
