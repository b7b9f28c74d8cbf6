package x

import (
	"context"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/stretchr/testify/require"
)

func TestChainAuth(t *testing.T) {
	client := weavetest.NewCondition()
	freelancer := weavetest.NewCondition()
	arbiter := weavetest.NewCondition()

	signed := &weavetest.CtxAuth{Key: "signed"}
	other := &weavetest.CtxAuth{Key: "other"}
	ctx := signed.SetConditions(context.Background(), freelancer)

	cases := map[string]struct {
		auth    Authenticator
		want    []weave.Condition
		missing weave.Condition
	}{
		"nothing proven": {
			auth:    ChainAuth(),
			missing: client,
		},
		"single signer": {
			auth:    ChainAuth(&weavetest.Auth{Signer: client}),
			want:    []weave.Condition{client},
			missing: freelancer,
		},
		"conditions are merged in order": {
			auth:    ChainAuth(signed, &weavetest.Auth{Signer: client}),
			want:    []weave.Condition{freelancer, client},
			missing: arbiter,
		},
		"context keys are not shared": {
			auth:    ChainAuth(other),
			missing: freelancer,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := tc.auth.GetConditions(ctx)
			require.Equal(t, tc.want, got)
			for _, c := range tc.want {
				require.True(t, tc.auth.HasAddress(ctx, c.Address()))
			}
			require.False(t, tc.auth.HasAddress(ctx, tc.missing.Address()))
		})
	}
}

func TestAuthorizerFrom(t *testing.T) {
	arbiter := weavetest.NewCondition()
	client := weavetest.NewCondition()
	authz := AuthorizerFrom(&weavetest.Auth{Signer: arbiter})
	ctx := context.Background()

	require.NoError(t, authz.RequireAuth(ctx, arbiter.Address()))

	err := authz.RequireAuth(ctx, client.Address())
	require.True(t, errors.ErrUnauthorized.Is(err), "got %+v", err)

	err = authz.RequireAuth(ctx, nil)
	require.True(t, errors.ErrUnauthorized.Is(err), "got %+v", err)
}

func TestAuthorizerFunc(t *testing.T) {
	var seen weave.Address
	authz := AuthorizerFunc(func(_ weave.Context, p weave.Address) error {
		seen = p
		return errors.ErrHuman
	})
	addr := weavetest.NewCondition().Address()
	err := authz.RequireAuth(context.Background(), addr)
	require.True(t, errors.ErrHuman.Is(err))
	require.Equal(t, addr, seen)
}
