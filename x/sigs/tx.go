package sigs

import (
	"github.com/iov-one/weave-escrow/codec"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
)

// SignedTx represents a transaction that contains signatures,
// which can be verified by the auth.Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the Msg.
	// Equivalent to weave.MustMarshal(tx.GetMsg()) if Msg has a deterministic
	// serialization.
	//
	// Helpful to store original, unparsed bytes here, just in case.
	GetSignBytes() ([]byte, error)

	// Signatures returns the signature of signers who signed the Msg.
	GetSignatures() []*StdSignature
}

// StdSignature binds a signature to the public key and nonce of its
// signer.
//
// Fields:
//
//	1: crypto.PublicKey pubkey
//	2: crypto.Signature signature
//	3: int64 sequence
type StdSignature struct {
	Pubkey    *crypto.PublicKey
	Signature *crypto.Signature
	Sequence  int64
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s == nil {
		return errors.Wrap(errors.ErrEmpty, "signature")
	}
	var errs error
	if s.Sequence < 0 {
		errs = errors.AppendField(errs, "Sequence", ErrInvalidSequence)
	}
	if s.Pubkey == nil {
		errs = errors.Append(errs, errors.Field("Pubkey", errors.ErrUnauthorized, "missing public key"))
	} else {
		errs = errors.AppendField(errs, "Pubkey", s.Pubkey.Validate())
	}
	errs = errors.AppendField(errs, "Signature", s.Signature.Validate())
	return errs
}

// Marshal encodes the signature.
func (s *StdSignature) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	if s.Pubkey != nil {
		w.Message(1, s.Pubkey)
	}
	if s.Signature != nil {
		w.Message(2, s.Signature)
	}
	w.Uint64(3, uint64(s.Sequence))
	return w.Result()
}

// Unmarshal decodes the signature.
func (s *StdSignature) Unmarshal(raw []byte) error {
	*s = StdSignature{}
	return codec.Decode(raw, func(f codec.Field) error {
		switch f.Num {
		case 1:
			s.Pubkey = &crypto.PublicKey{}
			return f.Message(s.Pubkey)
		case 2:
			s.Signature = &crypto.Signature{}
			return f.Message(s.Signature)
		case 3:
			n, err := f.Uint64()
			s.Sequence = int64(n)
			return err
		}
		return nil
	})
}
