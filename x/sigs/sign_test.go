package sigs

import (
	"testing"

	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSignBytes(t *testing.T) {
	cases := map[string]struct {
		chainID string
		seq     int64
		wantErr *errors.Error
	}{
		"valid":             {chainID: "test-chain", seq: 7},
		"negative sequence": {chainID: "test-chain", seq: -1, wantErr: ErrInvalidSequence},
		"short chain id":    {chainID: "abc", seq: 1, wantErr: errors.ErrInput},
		"bad chain id":      {chainID: "chain id!", seq: 1, wantErr: errors.ErrInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			bz, err := BuildSignBytes([]byte("payload"), tc.chainID, tc.seq)
			if tc.wantErr != nil {
				assert.True(t, tc.wantErr.Is(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, bz, 64)
		})
	}

	a, err := BuildSignBytes([]byte("payload"), "test-chain", 1)
	require.NoError(t, err)
	b, err := BuildSignBytes([]byte("payload"), "test-chain", 2)
	require.NoError(t, err)
	c, err := BuildSignBytes([]byte("payload"), "other-chain", 1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestVerifySignature(t *testing.T) {
	const chainID = "escrow-test"
	db := store.MemStore()
	priv := crypto.GenPrivKeyEd25519()
	other := crypto.GenPrivKeyEd25519()
	tx := newSignedTx([]byte("transfer"))

	sig0, err := SignTx(priv, tx, chainID, 0)
	require.NoError(t, err)
	sig1, err := SignTx(priv, tx, chainID, 1)
	require.NoError(t, err)
	wrongChain, err := SignTx(priv, tx, "other-chain", 1)
	require.NoError(t, err)

	// sequence must start at zero
	_, err = VerifySignature(db, sig1, tx.payload, chainID)
	assert.True(t, ErrInvalidSequence.Is(err))

	cond, err := VerifySignature(db, sig0, tx.payload, chainID)
	require.NoError(t, err)
	assert.True(t, priv.PublicKey().Condition().Equals(cond))

	// replay is rejected
	_, err = VerifySignature(db, sig0, tx.payload, chainID)
	assert.True(t, ErrInvalidSequence.Is(err))

	_, err = VerifySignature(db, wrongChain, tx.payload, chainID)
	assert.True(t, errors.ErrUnauthorized.Is(err))

	// signature of one key presented with another public key
	forged := &StdSignature{Pubkey: other.PublicKey(), Signature: sig1.Signature, Sequence: 0}
	_, err = VerifySignature(db, forged, tx.payload, chainID)
	assert.True(t, errors.ErrUnauthorized.Is(err))

	_, err = VerifySignature(db, sig1, tx.payload, chainID)
	require.NoError(t, err)

	seq, err := NextSequence(db, priv.PublicKey())
	require.NoError(t, err)
	assert.EqualValues(t, 2, seq)

	seq, err = NextSequence(db, other.PublicKey())
	require.NoError(t, err)
	assert.EqualValues(t, 0, seq)
}

func TestVerifyTxSignatures(t *testing.T) {
	const chainID = "escrow-test"
	db := store.MemStore()
	a := crypto.GenPrivKeyEd25519()
	b := crypto.GenPrivKeyEd25519()
	tx := newSignedTx([]byte("many signers"))

	signers, err := VerifyTxSignatures(db, tx, chainID)
	require.NoError(t, err)
	assert.Empty(t, signers)

	sa, err := SignTx(a, tx, chainID, 0)
	require.NoError(t, err)
	sb, err := SignTx(b, tx, chainID, 0)
	require.NoError(t, err)
	tx.Signatures = []*StdSignature{sa, sb}

	signers, err = VerifyTxSignatures(db, tx, chainID)
	require.NoError(t, err)
	require.Len(t, signers, 2)
	assert.True(t, a.PublicKey().Condition().Equals(signers[0]))
	assert.True(t, b.PublicKey().Condition().Equals(signers[1]))

	tx.Signatures = []*StdSignature{nil, sa}
	_, err = VerifyTxSignatures(db, tx, chainID)
	assert.True(t, errors.ErrEmpty.Is(err))
}

func TestStdSignatureRoundTrip(t *testing.T) {
	priv := crypto.GenPrivKeyEd25519()
	sig, err := SignTx(priv, newSignedTx([]byte("x")), "escrow-test", 12)
	require.NoError(t, err)
	require.NoError(t, sig.Validate())

	raw, err := sig.Marshal()
	require.NoError(t, err)
	var got StdSignature
	require.NoError(t, got.Unmarshal(raw))
	assert.Equal(t, sig, &got)
}

func TestStdSignatureValidate(t *testing.T) {
	priv := crypto.GenPrivKeyEd25519()
	sig, err := SignTx(priv, newSignedTx([]byte("x")), "escrow-test", 0)
	require.NoError(t, err)

	noKey := *sig
	noKey.Pubkey = nil
	assert.True(t, errors.ErrUnauthorized.Is(noKey.Validate()))

	negative := *sig
	negative.Sequence = -3
	assert.True(t, ErrInvalidSequence.Is(negative.Validate()))

	unsigned := *sig
	unsigned.Signature = nil
	assert.True(t, errors.ErrEmpty.Is(unsigned.Validate()))
}
