package weavetest

import (
	"context"
	"slices"

	"github.com/iov-one/weave-escrow"
)

// Auth is an authenticator with a fixed answer.
type Auth struct {
	Signers []weave.Condition
	// Signer is appended to Signers when set.
	Signer weave.Condition
}

func (a *Auth) GetConditions(weave.Context) []weave.Condition {
	if a.Signer == nil {
		return a.Signers
	}
	return append(slices.Clip(a.Signers), a.Signer)
}

func (a *Auth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	return signedBy(a.GetConditions(ctx), addr)
}

// CtxAuth authenticates whatever SetConditions stored in the context.
// Each Key is a separate namespace, so two instances can model two
// independent authenticators.
type CtxAuth struct {
	Key string
}

type authKey string

func (a *CtxAuth) SetConditions(ctx weave.Context, conds ...weave.Condition) weave.Context {
	return context.WithValue(ctx, authKey(a.Key), conds)
}

func (a *CtxAuth) GetConditions(ctx weave.Context) []weave.Condition {
	conds, _ := ctx.Value(authKey(a.Key)).([]weave.Condition)
	return conds
}

func (a *CtxAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	return signedBy(a.GetConditions(ctx), addr)
}

func signedBy(conds []weave.Condition, addr weave.Address) bool {
	return slices.ContainsFunc(conds, func(c weave.Condition) bool {
		return c.Address().Equals(addr)
	})
}
