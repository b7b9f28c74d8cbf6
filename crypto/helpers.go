/*
Package crypto holds the ed25519 keys and signatures used to authenticate
transactions. A public key proves a condition of the form
"sigs/ed25519/<pubkey>" whose address identifies the signer.
*/
package crypto

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/codec"
	"github.com/iov-one/weave-escrow/errors"
)

// ExtensionName is used for the Conditions we get from signatures
const ExtensionName = "sigs"

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (*Signature, error)
	PublicKey() *PublicKey
}

// PublicKey is a serializable ed25519 public key.
type PublicKey struct {
	Ed25519 []byte
}

// GetEd25519 returns the raw key or nil.
func (p *PublicKey) GetEd25519() []byte {
	if p == nil {
		return nil
	}
	return p.Ed25519
}

// Marshal encodes the key.
func (p *PublicKey) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.Bytes(1, p.Ed25519)
	return w.Result()
}

// Unmarshal decodes the key.
func (p *PublicKey) Unmarshal(raw []byte) error {
	*p = PublicKey{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		if f.Num == 1 {
			p.Ed25519, err = f.Bytes()
		}
		return err
	})
}

// Validate ensures the key has the ed25519 size.
func (p *PublicKey) Validate() error {
	if len(p.GetEd25519()) != pubKeySize {
		return errors.Wrapf(errors.ErrInput, "public key must be %d bytes", pubKeySize)
	}
	return nil
}

// Address returns the address of the key condition, or nil for an empty
// key.
func (p *PublicKey) Address() weave.Address {
	c := p.Condition()
	if c == nil {
		return nil
	}
	return c.Address()
}

// PrivateKey is a serializable ed25519 private key.
type PrivateKey struct {
	Ed25519 []byte
}

var _ Signer = (*PrivateKey)(nil)

// GetEd25519 returns the raw key or nil.
func (p *PrivateKey) GetEd25519() []byte {
	if p == nil {
		return nil
	}
	return p.Ed25519
}

// Marshal encodes the key.
func (p *PrivateKey) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.Bytes(1, p.Ed25519)
	return w.Result()
}

// Unmarshal decodes the key.
func (p *PrivateKey) Unmarshal(raw []byte) error {
	*p = PrivateKey{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		if f.Num == 1 {
			p.Ed25519, err = f.Bytes()
		}
		return err
	})
}

// Signature is a serializable ed25519 signature.
type Signature struct {
	Ed25519 []byte
}

// GetEd25519 returns the raw signature or nil.
func (s *Signature) GetEd25519() []byte {
	if s == nil {
		return nil
	}
	return s.Ed25519
}

// Marshal encodes the signature.
func (s *Signature) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.Bytes(1, s.Ed25519)
	return w.Result()
}

// Unmarshal decodes the signature.
func (s *Signature) Unmarshal(raw []byte) error {
	*s = Signature{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		if f.Num == 1 {
			s.Ed25519, err = f.Bytes()
		}
		return err
	})
}

// Validate ensures the signature is not empty.
func (s *Signature) Validate() error {
	if len(s.GetEd25519()) == 0 {
		return errors.Wrap(errors.ErrEmpty, "signature")
	}
	return nil
}
