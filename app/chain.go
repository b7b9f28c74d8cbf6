package app

import (
	"reflect"

	"github.com/iov-one/weave-escrow"
)

// Decorators is an ordered stack of decorators waiting for the handler
// they wrap. The first decorator is the outermost one.
//
//	app.ChainDecorators(
//		utils.NewLogging(),
//		utils.NewRecovery(),
//		sigs.NewDecorator(),
//	).WithHandler(router)
type Decorators struct {
	stack []weave.Decorator
}

func ChainDecorators(ds ...weave.Decorator) Decorators {
	return Decorators{}.Chain(ds...)
}

// Chain returns a new stack with ds appended. Nil decorators, including
// typed nil pointers, are skipped so optional steps can be passed as is.
func (d Decorators) Chain(ds ...weave.Decorator) Decorators {
	stack := append([]weave.Decorator(nil), d.stack...)
	for _, dec := range ds {
		if dec == nil {
			continue
		}
		if v := reflect.ValueOf(dec); v.Kind() == reflect.Ptr && v.IsNil() {
			continue
		}
		stack = append(stack, dec)
	}
	return Decorators{stack: stack}
}

// WithHandler resolves the stack into a single handler.
func (d Decorators) WithHandler(h weave.Handler) weave.Handler {
	for i := len(d.stack) - 1; i >= 0; i-- {
		h = decorated{dec: d.stack[i], next: h}
	}
	return h
}

// decorated runs one decorator around the rest of the stack.
type decorated struct {
	dec  weave.Decorator
	next weave.Handler
}

func (s decorated) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return s.dec.Check(ctx, db, tx, s.next)
}

func (s decorated) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	return s.dec.Deliver(ctx, db, tx, s.next)
}
