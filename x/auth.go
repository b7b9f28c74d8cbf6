package x

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// Authenticator exposes the conditions proven by the current transaction,
// usually its signers. Handlers receive one in their constructor so that
// they do not depend on a particular signature scheme.
type Authenticator interface {
	GetConditions(weave.Context) []weave.Condition
	HasAddress(weave.Context, weave.Address) bool
}

// Authorizer fails with errors.ErrUnauthorized unless the transaction
// carries the authorization of principal.
type Authorizer interface {
	RequireAuth(ctx weave.Context, principal weave.Address) error
}

type AuthorizerFunc func(weave.Context, weave.Address) error

func (fn AuthorizerFunc) RequireAuth(ctx weave.Context, principal weave.Address) error {
	return fn(ctx, principal)
}

// AuthorizerFrom authorizes a principal when any condition proven in the
// context resolves to its address.
func AuthorizerFrom(auth Authenticator) Authorizer {
	return AuthorizerFunc(func(ctx weave.Context, principal weave.Address) error {
		switch {
		case len(principal) == 0:
			return errors.Wrap(errors.ErrUnauthorized, "empty principal")
		case !auth.HasAddress(ctx, principal):
			return errors.Wrapf(errors.ErrUnauthorized, "missing authorization of %s", principal)
		}
		return nil
	})
}

// MultiAuth merges the conditions of several authenticators.
type MultiAuth []Authenticator

var _ Authenticator = MultiAuth(nil)

func ChainAuth(auths ...Authenticator) MultiAuth {
	return MultiAuth(auths)
}

// GetConditions lists the conditions of every authenticator in order.
func (m MultiAuth) GetConditions(ctx weave.Context) []weave.Condition {
	var all []weave.Condition
	for _, a := range m {
		all = append(all, a.GetConditions(ctx)...)
	}
	return all
}

func (m MultiAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, a := range m {
		if a.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}
