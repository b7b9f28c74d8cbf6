package escrow

import (
	"math/big"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x"
	"github.com/iov-one/weave-escrow/x/cash"
)

// ModuleName tags every event emitted by this extension.
const ModuleName = "escrow"

// Event topics.
const (
	TopicCreated   = "created"
	TopicFunded    = "funded"
	TopicDelivered = "deliver"
	TopicReleased  = "release"
	TopicDisputed  = "dispute"
	TopicResolved  = "resolve"
)

// Controller is the escrow lifecycle. Every mutating method either
// succeeds completely or leaves the store unchanged.
type Controller interface {
	Create(ctx weave.Context, db weave.KVStore, id string, client, freelancer weave.Address, amount coin.Coin, arbiter weave.Address) (*Escrow, error)
	Fund(ctx weave.Context, db weave.KVStore, id string) (*Escrow, error)
	Deliver(ctx weave.Context, db weave.KVStore, id, note string) (*Escrow, error)
	Release(ctx weave.Context, db weave.KVStore, id string) (*Escrow, error)
	Dispute(ctx weave.Context, db weave.KVStore, id, reason string) (*Escrow, error)
	Resolve(ctx weave.Context, db weave.KVStore, id string, payFreelancer bool) (*Escrow, error)

	Escrow(db weave.ReadOnlyKVStore, id string) (*Escrow, error)
	Count(db weave.ReadOnlyKVStore) (uint32, error)
	ByParty(db weave.ReadOnlyKVStore, role string, addr weave.Address) ([]*Escrow, error)
}

// BaseController implements Controller on top of an authorization
// provider and a coin transfer service.
type BaseController struct {
	bucket Bucket
	auth   x.Authorizer
	bank   cash.CoinMover
}

var _ Controller = BaseController{}

// NewController returns a controller storing escrows in given bucket.
func NewController(bucket Bucket, auth x.Authorizer, bank cash.CoinMover) BaseController {
	return BaseController{
		bucket: bucket,
		auth:   auth,
		bank:   bank,
	}
}

// Create stores a new unfunded escrow. The client must authorize it.
func (c BaseController) Create(ctx weave.Context, db weave.KVStore, id string, client, freelancer weave.Address, amount coin.Coin, arbiter weave.Address) (*Escrow, error) {
	if err := c.auth.RequireAuth(ctx, client); err != nil {
		return nil, errors.Wrap(err, "client")
	}
	e := &Escrow{
		ID:         id,
		Client:     client,
		Freelancer: freelancer,
		Arbiter:    arbiter,
		Token:      amount.Ticker,
		Amount:     amount.Amount,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	err := atomically(db, func(db weave.KVStore) error {
		return c.bucket.Create(db, e)
	})
	if err != nil {
		return nil, err
	}
	emit(ctx, TopicCreated, e, e.Client)
	return e, nil
}

// Fund moves the escrow amount from the client to the custody address.
func (c BaseController) Fund(ctx weave.Context, db weave.KVStore, id string) (*Escrow, error) {
	e, err := c.bucket.Load(db, id)
	if err != nil {
		return nil, err
	}
	if err := c.auth.RequireAuth(ctx, e.Client); err != nil {
		return nil, errors.Wrap(err, "client")
	}
	if e.Funded {
		return nil, errors.Wrapf(ErrAlreadyFunded, "escrow %q", id)
	}

	e.Funded = true
	err = atomically(db, func(db weave.KVStore) error {
		if err := c.transfer(db, e.Client, Custody, e.Coin()); err != nil {
			return err
		}
		return c.bucket.Save(db, e)
	})
	if err != nil {
		return nil, err
	}
	emit(ctx, TopicFunded, e, new(big.Int).Set(e.Amount))
	return e, nil
}

// Deliver marks the work as delivered. The freelancer must authorize it.
func (c BaseController) Deliver(ctx weave.Context, db weave.KVStore, id, note string) (*Escrow, error) {
	e, err := c.bucket.Load(db, id)
	if err != nil {
		return nil, err
	}
	if err := c.auth.RequireAuth(ctx, e.Freelancer); err != nil {
		return nil, errors.Wrap(err, "freelancer")
	}
	switch {
	case !e.Funded:
		return nil, errors.Wrapf(ErrNotFunded, "escrow %q", id)
	case e.Delivered:
		return nil, errors.Wrapf(ErrAlreadyDelivered, "escrow %q", id)
	case e.Released:
		return nil, errors.Wrapf(ErrAlreadyReleased, "escrow %q", id)
	}

	e.Delivered = true
	e.DeliveryNote = note
	if err := c.bucket.Save(db, e); err != nil {
		return nil, err
	}
	emit(ctx, TopicDelivered, e, true)
	return e, nil
}

// Release pays the freelancer from custody. The client must authorize it.
func (c BaseController) Release(ctx weave.Context, db weave.KVStore, id string) (*Escrow, error) {
	e, err := c.bucket.Load(db, id)
	if err != nil {
		return nil, err
	}
	if err := c.auth.RequireAuth(ctx, e.Client); err != nil {
		return nil, errors.Wrap(err, "client")
	}
	switch {
	case !e.Funded:
		return nil, errors.Wrapf(ErrNotFunded, "escrow %q", id)
	case !e.Delivered:
		return nil, errors.Wrapf(ErrNotDelivered, "escrow %q", id)
	case e.Released:
		return nil, errors.Wrapf(ErrAlreadyReleased, "escrow %q", id)
	}

	e.Released = true
	err = atomically(db, func(db weave.KVStore) error {
		if err := c.transfer(db, Custody, e.Freelancer, e.Coin()); err != nil {
			return err
		}
		return c.bucket.Save(db, e)
	})
	if err != nil {
		return nil, err
	}
	emit(ctx, TopicReleased, e, new(big.Int).Set(e.Amount))
	return e, nil
}

// Dispute hands the decision over to the arbiter. Either the client or the
// freelancer must authorize it.
func (c BaseController) Dispute(ctx weave.Context, db weave.KVStore, id, reason string) (*Escrow, error) {
	e, err := c.bucket.Load(db, id)
	if err != nil {
		return nil, err
	}
	if c.auth.RequireAuth(ctx, e.Client) != nil && c.auth.RequireAuth(ctx, e.Freelancer) != nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "client or freelancer")
	}
	if err := validateReason(reason); err != nil {
		return nil, errors.Wrap(err, "reason")
	}
	switch {
	case !e.Funded:
		return nil, errors.Wrapf(ErrNotFunded, "escrow %q", id)
	case e.Released:
		return nil, errors.Wrapf(ErrAlreadyReleased, "escrow %q", id)
	}

	e.Disputed = true
	if reason != "" {
		e.DisputeReason = reason
	}
	if err := c.bucket.Save(db, e); err != nil {
		return nil, err
	}
	emit(ctx, TopicDisputed, e, true)
	return e, nil
}

// Resolve settles a disputed escrow by paying either the freelancer or the
// client. The arbiter must authorize it.
func (c BaseController) Resolve(ctx weave.Context, db weave.KVStore, id string, payFreelancer bool) (*Escrow, error) {
	e, err := c.bucket.Load(db, id)
	if err != nil {
		return nil, err
	}
	if err := c.auth.RequireAuth(ctx, e.Arbiter); err != nil {
		return nil, errors.Wrap(err, "arbiter")
	}
	switch {
	case !e.Disputed:
		return nil, errors.Wrapf(ErrNotDisputed, "escrow %q", id)
	case e.Released:
		return nil, errors.Wrapf(ErrAlreadyResolved, "escrow %q", id)
	}

	recipient := e.Client
	if payFreelancer {
		recipient = e.Freelancer
	}
	e.Released = true
	err = atomically(db, func(db weave.KVStore) error {
		if err := c.transfer(db, Custody, recipient, e.Coin()); err != nil {
			return err
		}
		return c.bucket.Save(db, e)
	})
	if err != nil {
		return nil, err
	}
	emit(ctx, TopicResolved, e, payFreelancer)
	return e, nil
}

// Escrow returns the escrow with given id.
func (c BaseController) Escrow(db weave.ReadOnlyKVStore, id string) (*Escrow, error) {
	return c.bucket.Load(db, id)
}

// Count returns the number of escrows ever created.
func (c BaseController) Count(db weave.ReadOnlyKVStore) (uint32, error) {
	return c.bucket.Count(db)
}

// ByParty lists the escrows in which addr takes given role.
func (c BaseController) ByParty(db weave.ReadOnlyKVStore, role string, addr weave.Address) ([]*Escrow, error) {
	return c.bucket.ByParty(db, role, addr)
}

func (c BaseController) transfer(db weave.KVStore, src, dest weave.Address, amount coin.Coin) error {
	if err := c.bank.MoveCoins(db, src, dest, amount); err != nil {
		return errors.Append(errors.Wrapf(ErrTransferFailed, "%s to %s", amount, dest), err)
	}
	return nil
}

// atomically runs fn against a cache of db that is written through only
// if fn succeeds.
func atomically(db weave.KVStore, fn func(weave.KVStore) error) error {
	cdb, ok := db.(weave.CacheableKVStore)
	if !ok {
		return fn(db)
	}
	cache := cdb.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	return cache.Write()
}

func emit(ctx weave.Context, topic string, e *Escrow, payload interface{}) {
	weave.EmitEvent(ctx, weave.Event{
		Module:  ModuleName,
		Topic:   topic,
		Key:     e.ID,
		Payload: payload,
	})
}
