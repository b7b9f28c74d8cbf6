package crypto

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"golang.org/x/crypto/ed25519"
)

const (
	pubKeySize  = ed25519.PublicKeySize
	privKeySize = ed25519.PrivateKeySize
)

// GenPrivKeyEd25519 creates a key from the system randomness source.
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &PrivateKey{Ed25519: priv}
}

// PrivKeyEd25519FromSeed derives a key from a 32 byte seed. The same seed
// always gives the same key.
func PrivKeyEd25519FromSeed(seed []byte) *PrivateKey {
	return &PrivateKey{Ed25519: ed25519.NewKeyFromSeed(seed)}
}

func (p *PrivateKey) Sign(message []byte) (*Signature, error) {
	key := p.GetEd25519()
	if len(key) != privKeySize {
		return nil, errors.Wrapf(errors.ErrInput, "private key must be %d bytes", privKeySize)
	}
	return &Signature{Ed25519: ed25519.Sign(key, message)}, nil
}

// PublicKey is empty for a malformed private key.
func (p *PrivateKey) PublicKey() *PublicKey {
	key := p.GetEd25519()
	if len(key) != privKeySize {
		return &PublicKey{}
	}
	return &PublicKey{Ed25519: ed25519.PrivateKey(key).Public().(ed25519.PublicKey)}
}

// Verify is false for any malformed key or signature.
func (p *PublicKey) Verify(message []byte, sig *Signature) bool {
	key, raw := p.GetEd25519(), sig.GetEd25519()
	if len(key) != pubKeySize || len(raw) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(key, message, raw)
}

// Condition is "sigs/ed25519/<key>", or nil for an empty key.
func (p *PublicKey) Condition() weave.Condition {
	key := p.GetEd25519()
	if len(key) == 0 {
		return nil
	}
	return weave.NewCondition(ExtensionName, "ed25519", key)
}
