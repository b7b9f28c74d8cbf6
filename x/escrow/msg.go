package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/codec"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
)

// Routes of all escrow messages.
const (
	PathCreateMsg  = "escrow/create"
	PathFundMsg    = "escrow/fund"
	PathDeliverMsg = "escrow/deliver"
	PathReleaseMsg = "escrow/release"
	PathDisputeMsg = "escrow/dispute"
	PathResolveMsg = "escrow/resolve"
)

var (
	_ weave.Msg = (*CreateMsg)(nil)
	_ weave.Msg = (*FundMsg)(nil)
	_ weave.Msg = (*DeliverMsg)(nil)
	_ weave.Msg = (*ReleaseMsg)(nil)
	_ weave.Msg = (*DisputeMsg)(nil)
	_ weave.Msg = (*ResolveMsg)(nil)
)

// CreateMsg opens a new escrow.
//
// Fields:
//
//	1: string escrow_id
//	2: bytes client
//	3: bytes freelancer
//	4: bytes arbiter
//	5: coin.Coin amount
type CreateMsg struct {
	EscrowID   string
	Client     weave.Address
	Freelancer weave.Address
	Arbiter    weave.Address
	Amount     *coin.Coin
}

// Path returns the routing path for this message
func (CreateMsg) Path() string {
	return PathCreateMsg
}

// Validate makes sure that this is sensible
func (m *CreateMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "EscrowID", validateID(m.EscrowID))
	errs = errors.AppendField(errs, "Client", m.Client.Validate())
	errs = errors.AppendField(errs, "Freelancer", m.Freelancer.Validate())
	errs = errors.AppendField(errs, "Arbiter", m.Arbiter.Validate())
	if coin.IsEmpty(m.Amount) {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "missing"))
	} else {
		errs = errors.AppendField(errs, "Amount", validateAmount(*m.Amount))
	}
	return errors.Append(errs, validateParties(m.Client, m.Freelancer, m.Arbiter))
}

// Marshal encodes the message.
func (m *CreateMsg) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.String(1, m.EscrowID)
	w.Bytes(2, m.Client)
	w.Bytes(3, m.Freelancer)
	w.Bytes(4, m.Arbiter)
	if m.Amount != nil {
		w.Message(5, m.Amount)
	}
	return w.Result()
}

// Unmarshal decodes the message.
func (m *CreateMsg) Unmarshal(raw []byte) error {
	*m = CreateMsg{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			m.EscrowID, err = f.String()
		case 2:
			m.Client, err = f.Bytes()
		case 3:
			m.Freelancer, err = f.Bytes()
		case 4:
			m.Arbiter, err = f.Bytes()
		case 5:
			m.Amount = new(coin.Coin)
			err = f.Message(m.Amount)
		}
		return err
	})
}

// FundMsg moves the escrow amount from the client into custody.
//
// Fields:
//
//	1: string escrow_id
type FundMsg struct {
	EscrowID string
}

// Path returns the routing path for this message
func (FundMsg) Path() string {
	return PathFundMsg
}

// Validate makes sure that this is sensible
func (m *FundMsg) Validate() error {
	return errors.AppendField(nil, "EscrowID", validateID(m.EscrowID))
}

// Marshal encodes the message.
func (m *FundMsg) Marshal() ([]byte, error) {
	return marshalID(m.EscrowID)
}

// Unmarshal decodes the message.
func (m *FundMsg) Unmarshal(raw []byte) error {
	return unmarshalID(raw, &m.EscrowID)
}

// DeliverMsg signals the work is done.
//
// Fields:
//
//	1: string escrow_id
//	2: string note
type DeliverMsg struct {
	EscrowID string
	Note     string
}

// Path returns the routing path for this message
func (DeliverMsg) Path() string {
	return PathDeliverMsg
}

// Validate makes sure that this is sensible
func (m *DeliverMsg) Validate() error {
	errs := errors.AppendField(nil, "EscrowID", validateID(m.EscrowID))
	if len(m.Note) > maxNoteSize {
		errs = errors.Append(errs, errors.Field("Note", errors.ErrInput, "longer than %d", maxNoteSize))
	}
	return errs
}

// Marshal encodes the message.
func (m *DeliverMsg) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.String(1, m.EscrowID)
	w.String(2, m.Note)
	return w.Result()
}

// Unmarshal decodes the message.
func (m *DeliverMsg) Unmarshal(raw []byte) error {
	*m = DeliverMsg{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			m.EscrowID, err = f.String()
		case 2:
			m.Note, err = f.String()
		}
		return err
	})
}

// ReleaseMsg pays the freelancer.
//
// Fields:
//
//	1: string escrow_id
type ReleaseMsg struct {
	EscrowID string
}

// Path returns the routing path for this message
func (ReleaseMsg) Path() string {
	return PathReleaseMsg
}

// Validate makes sure that this is sensible
func (m *ReleaseMsg) Validate() error {
	return errors.AppendField(nil, "EscrowID", validateID(m.EscrowID))
}

// Marshal encodes the message.
func (m *ReleaseMsg) Marshal() ([]byte, error) {
	return marshalID(m.EscrowID)
}

// Unmarshal decodes the message.
func (m *ReleaseMsg) Unmarshal(raw []byte) error {
	return unmarshalID(raw, &m.EscrowID)
}

// DisputeMsg asks the arbiter to decide.
//
// Fields:
//
//	1: string escrow_id
//	2: string reason
type DisputeMsg struct {
	EscrowID string
	Reason   string
}

// Path returns the routing path for this message
func (DisputeMsg) Path() string {
	return PathDisputeMsg
}

// Validate makes sure that this is sensible
func (m *DisputeMsg) Validate() error {
	errs := errors.AppendField(nil, "EscrowID", validateID(m.EscrowID))
	return errors.AppendField(errs, "Reason", validateReason(m.Reason))
}

// Marshal encodes the message.
func (m *DisputeMsg) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.String(1, m.EscrowID)
	w.String(2, m.Reason)
	return w.Result()
}

// Unmarshal decodes the message.
func (m *DisputeMsg) Unmarshal(raw []byte) error {
	*m = DisputeMsg{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			m.EscrowID, err = f.String()
		case 2:
			m.Reason, err = f.String()
		}
		return err
	})
}

// ResolveMsg is the arbiter decision on a disputed escrow.
//
// Fields:
//
//	1: string escrow_id
//	2: bool pay_freelancer
type ResolveMsg struct {
	EscrowID      string
	PayFreelancer bool
}

// Path returns the routing path for this message
func (ResolveMsg) Path() string {
	return PathResolveMsg
}

// Validate makes sure that this is sensible
func (m *ResolveMsg) Validate() error {
	return errors.AppendField(nil, "EscrowID", validateID(m.EscrowID))
}

// Marshal encodes the message.
func (m *ResolveMsg) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.String(1, m.EscrowID)
	w.Bool(2, m.PayFreelancer)
	return w.Result()
}

// Unmarshal decodes the message.
func (m *ResolveMsg) Unmarshal(raw []byte) error {
	*m = ResolveMsg{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			m.EscrowID, err = f.String()
		case 2:
			m.PayFreelancer, err = f.Bool()
		}
		return err
	})
}

func validateID(id string) error {
	if !isEscrowID(id) {
		return errors.Wrapf(errors.ErrInput, "invalid escrow id %q", id)
	}
	return nil
}

func marshalID(id string) ([]byte, error) {
	w := codec.NewWriter()
	w.String(1, id)
	return w.Result()
}

func unmarshalID(raw []byte, id *string) error {
	*id = ""
	return codec.Decode(raw, func(f codec.Field) (err error) {
		if f.Num == 1 {
			*id, err = f.String()
		}
		return err
	})
}
