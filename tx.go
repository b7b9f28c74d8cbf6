package weave

import (
	"reflect"

	"github.com/iov-one/weave-escrow/errors"
)

// Marshaller serializes into the binary wire format.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent can be written to and read back from the store. Unmarshal
// usually needs a pointer receiver, hence the split from Marshaller.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Msg is a single requested state transition, like funding an escrow.
// Authentication data lives in the enclosing Tx.
type Msg interface {
	Persistent

	// Path routes the message to its handler. It must match
	// [0-9A-Za-z_\-/]+ and is conventionally "<module>/<action>".
	Path() string

	// Validate checks the message in isolation, without any state.
	Validate() error
}

// Tx is what a client submits: one message plus whatever the
// decorators need to authenticate it.
type Tx interface {
	Persistent
	GetMsg() (Msg, error)
}

// TxDecoder parses raw transaction bytes.
type TxDecoder func(txBytes []byte) (Tx, error)

// GetPath is the message path of tx, or "(missing)".
func GetPath(tx Tx) string {
	if msg, err := tx.GetMsg(); err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// LoadMsg copies the message carried by tx into dst and validates it.
// dst must be a non nil pointer to the concrete message type.
func LoadMsg(tx Tx, dst interface{}) error {
	msg, err := tx.GetMsg()
	switch {
	case err != nil:
		return errors.Wrap(err, "cannot get transaction message")
	case msg == nil:
		return errors.Wrap(errors.ErrMsg, "no message")
	}

	out := reflect.ValueOf(dst)
	if out.Kind() != reflect.Ptr || out.IsNil() {
		return errors.Wrap(errors.ErrHuman, "destination must be a non nil pointer")
	}
	in := reflect.Indirect(reflect.ValueOf(msg))
	if in.Type() != out.Elem().Type() {
		return errors.Wrapf(errors.ErrType, "want %T message, got %T", dst, msg)
	}
	out.Elem().Set(in)

	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	return nil
}
