package escrow

import (
	"context"
	"math"
	"math/big"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/iov-one/weave-escrow/x"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture is a store with a funded client and a controller acting on it.
type fixture struct {
	db         weave.CacheableKVStore
	bank       cash.Controller
	ctrl       BaseController
	auth       *weavetest.CtxAuth
	events     *weave.EventBuffer
	client     weave.Condition
	freelancer weave.Condition
	arbiter    weave.Condition
}

func newFixture(t *testing.T, clientFunds int64) *fixture {
	t.Helper()
	f := &fixture{
		db:         store.MemStore(),
		bank:       cash.NewController(cash.NewBucket()),
		auth:       &weavetest.CtxAuth{Key: "escrow-test"},
		events:     &weave.EventBuffer{},
		client:     weavetest.NewCondition(),
		freelancer: weavetest.NewCondition(),
		arbiter:    weavetest.NewCondition(),
	}
	f.ctrl = NewController(NewBucket(), x.AuthorizerFrom(f.auth), f.bank)
	if clientFunds > 0 {
		require.NoError(t, f.bank.IssueCoins(f.db, f.client.Address(), coin.NewCoin(clientFunds, "ETH")))
	}
	return f
}

// as returns a context authenticated by given signers.
func (f *fixture) as(signers ...weave.Condition) weave.Context {
	ctx := weave.WithEventBuffer(context.Background(), f.events)
	return f.auth.SetConditions(ctx, signers...)
}

func (f *fixture) create(t *testing.T, id string, amount int64) {
	t.Helper()
	_, err := f.ctrl.Create(f.as(f.client), f.db, id, f.client.Address(), f.freelancer.Address(), coin.NewCoin(amount, "ETH"), f.arbiter.Address())
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, addr weave.Address) int64 {
	t.Helper()
	coins, err := f.bank.Balance(f.db, addr)
	require.NoError(t, err)
	b := coins.Balance("ETH")
	if b.Amount == nil {
		return 0
	}
	return b.Amount.Int64()
}

func (f *fixture) topics() []string {
	var topics []string
	for _, e := range f.events.Events() {
		topics = append(topics, e.Topic)
	}
	return topics
}

func TestHappyPath(t *testing.T) {
	f := newFixture(t, 500)

	count, err := f.ctrl.Count(f.db)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	f.create(t, "e1", 100)

	e, err := f.ctrl.Escrow(f.db, "e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", e.ID)
	assert.Equal(t, f.client.Address(), e.Client)
	assert.Equal(t, f.freelancer.Address(), e.Freelancer)
	assert.Equal(t, f.arbiter.Address(), e.Arbiter)
	assert.True(t, e.Coin().Equals(coin.NewCoin(100, "ETH")))
	assert.False(t, e.Funded || e.Delivered || e.Released || e.Disputed)

	count, err = f.ctrl.Count(f.db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = f.ctrl.Fund(f.as(f.client), f.db, "e1")
	require.NoError(t, err)
	assert.EqualValues(t, 400, f.balance(t, f.client.Address()))
	assert.EqualValues(t, 100, f.balance(t, Custody))

	_, err = f.ctrl.Deliver(f.as(f.freelancer), f.db, "e1", "logo attached")
	require.NoError(t, err)

	e, err = f.ctrl.Release(f.as(f.client), f.db, "e1")
	require.NoError(t, err)
	assert.True(t, e.Funded && e.Delivered && e.Released)
	assert.Equal(t, "logo attached", e.DeliveryNote)
	assert.EqualValues(t, 100, f.balance(t, f.freelancer.Address()))
	assert.EqualValues(t, 0, f.balance(t, Custody))

	assert.Equal(t, []string{TopicCreated, TopicFunded, TopicDelivered, TopicReleased}, f.topics())
	for _, ev := range f.events.Events() {
		assert.Equal(t, ModuleName, ev.Module)
		assert.Equal(t, "e1", ev.Key)
	}
	events := f.events.Events()
	assert.Equal(t, big.NewInt(100), events[1].Payload)
	assert.Equal(t, big.NewInt(100), events[3].Payload)

	// Released is terminal.
	_, err = f.ctrl.Fund(f.as(f.client), f.db, "e1")
	assert.True(t, ErrAlreadyFunded.Is(err), "got %v", err)
	_, err = f.ctrl.Deliver(f.as(f.freelancer), f.db, "e1", "")
	assert.True(t, ErrAlreadyDelivered.Is(err), "got %v", err)
	_, err = f.ctrl.Release(f.as(f.client), f.db, "e1")
	assert.True(t, ErrAlreadyReleased.Is(err), "got %v", err)
	_, err = f.ctrl.Dispute(f.as(f.client), f.db, "e1", "")
	assert.True(t, ErrAlreadyReleased.Is(err), "got %v", err)
	_, err = f.ctrl.Resolve(f.as(f.arbiter), f.db, "e1", true)
	assert.True(t, ErrNotDisputed.Is(err), "got %v", err)
	assert.EqualValues(t, 100, f.balance(t, f.freelancer.Address()))
}

func TestDisputePath(t *testing.T) {
	cases := map[string]struct {
		delivered      bool
		disputeBy      func(*fixture) weave.Condition
		payFreelancer  bool
		wantClient     int64
		wantFreelancer int64
	}{
		"client disputes, freelancer is paid": {
			disputeBy:      func(f *fixture) weave.Condition { return f.client },
			payFreelancer:  true,
			wantClient:     400,
			wantFreelancer: 100,
		},
		"client disputes, client is refunded": {
			disputeBy:      func(f *fixture) weave.Condition { return f.client },
			payFreelancer:  false,
			wantClient:     500,
			wantFreelancer: 0,
		},
		"freelancer disputes after delivery": {
			delivered:      true,
			disputeBy:      func(f *fixture) weave.Condition { return f.freelancer },
			payFreelancer:  true,
			wantClient:     400,
			wantFreelancer: 100,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, 500)
			f.create(t, "e1", 100)
			_, err := f.ctrl.Fund(f.as(f.client), f.db, "e1")
			require.NoError(t, err)
			if tc.delivered {
				_, err = f.ctrl.Deliver(f.as(f.freelancer), f.db, "e1", "")
				require.NoError(t, err)
			}

			// Only the arbiter decides and only after a dispute.
			_, err = f.ctrl.Resolve(f.as(f.arbiter), f.db, "e1", tc.payFreelancer)
			assert.True(t, ErrNotDisputed.Is(err), "got %v", err)

			e, err := f.ctrl.Dispute(f.as(tc.disputeBy(f)), f.db, "e1", "work not as agreed")
			require.NoError(t, err)
			assert.True(t, e.Disputed)
			assert.Equal(t, "work not as agreed", e.DisputeReason)

			_, err = f.ctrl.Resolve(f.as(f.client), f.db, "e1", tc.payFreelancer)
			assert.True(t, errors.ErrUnauthorized.Is(err), "got %v", err)

			e, err = f.ctrl.Resolve(f.as(f.arbiter), f.db, "e1", tc.payFreelancer)
			require.NoError(t, err)
			assert.True(t, e.Released)

			assert.EqualValues(t, tc.wantClient, f.balance(t, f.client.Address()))
			assert.EqualValues(t, tc.wantFreelancer, f.balance(t, f.freelancer.Address()))
			assert.EqualValues(t, 0, f.balance(t, Custody))

			_, err = f.ctrl.Resolve(f.as(f.arbiter), f.db, "e1", !tc.payFreelancer)
			assert.True(t, ErrAlreadyResolved.Is(err), "got %v", err)
			_, err = f.ctrl.Dispute(f.as(f.client), f.db, "e1", "")
			assert.True(t, ErrAlreadyReleased.Is(err), "got %v", err)
			_, err = f.ctrl.Deliver(f.as(f.freelancer), f.db, "e1", "")
			if tc.delivered {
				assert.True(t, ErrAlreadyDelivered.Is(err), "got %v", err)
			} else {
				assert.True(t, ErrAlreadyReleased.Is(err), "got %v", err)
			}

			want := TopicResolved
			topics := f.topics()
			assert.Equal(t, want, topics[len(topics)-1])
			last := f.events.Events()[len(topics)-1]
			assert.Equal(t, tc.payFreelancer, last.Payload)
		})
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t, 0)
	c, fr, ar := f.client.Address(), f.freelancer.Address(), f.arbiter.Address()
	eth := coin.NewCoin(10, "ETH")

	cases := map[string]struct {
		signer     weave.Condition
		id         string
		client     weave.Address
		freelancer weave.Address
		arbiter    weave.Address
		amount     coin.Coin
		wantErr    *errors.Error
	}{
		"not signed by the client": {
			signer: f.freelancer, id: "x1", client: c, freelancer: fr, arbiter: ar, amount: eth,
			wantErr: errors.ErrUnauthorized,
		},
		"zero amount": {
			signer: f.client, id: "x1", client: c, freelancer: fr, arbiter: ar, amount: coin.NewCoin(0, "ETH"),
			wantErr: errors.ErrAmount,
		},
		"negative amount": {
			signer: f.client, id: "x1", client: c, freelancer: fr, arbiter: ar, amount: coin.NewCoin(-5, "ETH"),
			wantErr: errors.ErrAmount,
		},
		"invalid ticker": {
			signer: f.client, id: "x1", client: c, freelancer: fr, arbiter: ar, amount: coin.NewCoin(5, "eth"),
			wantErr: errors.ErrCurrency,
		},
		"client is the freelancer": {
			signer: f.client, id: "x1", client: c, freelancer: c, arbiter: ar, amount: eth,
			wantErr: errors.ErrInput,
		},
		"arbiter is the freelancer": {
			signer: f.client, id: "x1", client: c, freelancer: fr, arbiter: fr, amount: eth,
			wantErr: errors.ErrInput,
		},
		"invalid id": {
			signer: f.client, id: "no spaces", client: c, freelancer: fr, arbiter: ar, amount: eth,
			wantErr: errors.ErrInput,
		},
		"missing arbiter": {
			signer: f.client, id: "x1", client: c, freelancer: fr, amount: eth,
			wantErr: errors.ErrEmpty,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ctrl.Create(f.as(tc.signer), f.db, tc.id, tc.client, tc.freelancer, tc.amount, tc.arbiter)
			assert.True(t, tc.wantErr.Is(err), "got %v", err)
		})
	}

	count, err := f.ctrl.Count(f.db)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	f.create(t, "x1", 10)
	_, err = f.ctrl.Create(f.as(f.client), f.db, "x1", c, fr, coin.NewCoin(99, "IOV"), ar)
	assert.True(t, errors.ErrDuplicate.Is(err), "got %v", err)

	f.create(t, "x2", 10)
	count, err = f.ctrl.Count(f.db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	e, err := f.ctrl.Escrow(f.db, "x1")
	require.NoError(t, err)
	assert.Equal(t, "ETH", e.Token)

	_, err = f.ctrl.Escrow(f.db, "nope")
	assert.True(t, errors.ErrNotFound.Is(err), "got %v", err)
}

func TestFundIsAtomic(t *testing.T) {
	f := newFixture(t, 50)
	f.create(t, "e1", 100)

	_, err := f.ctrl.Fund(f.as(f.freelancer), f.db, "e1")
	assert.True(t, errors.ErrUnauthorized.Is(err), "got %v", err)

	_, err = f.ctrl.Fund(f.as(f.client), f.db, "e1")
	assert.True(t, ErrTransferFailed.Is(err), "got %v", err)
	assert.True(t, errors.ErrInsufficientAmount.Is(err), "got %v", err)
	assert.EqualValues(t, ErrTransferFailed.ABCICode(), errors.ABCICode(err))

	e, err := f.ctrl.Escrow(f.db, "e1")
	require.NoError(t, err)
	assert.False(t, e.Funded)
	assert.EqualValues(t, 50, f.balance(t, f.client.Address()))
	assert.EqualValues(t, 0, f.balance(t, Custody))

	require.NoError(t, f.bank.IssueCoins(f.db, f.client.Address(), coin.NewCoin(50, "ETH")))
	_, err = f.ctrl.Fund(f.as(f.client), f.db, "e1")
	require.NoError(t, err)
	_, err = f.ctrl.Fund(f.as(f.client), f.db, "e1")
	assert.True(t, ErrAlreadyFunded.Is(err), "got %v", err)
	assert.EqualValues(t, 0, f.balance(t, f.client.Address()))
	assert.EqualValues(t, 100, f.balance(t, Custody))

	_, err = f.ctrl.Fund(f.as(f.client), f.db, "missing")
	assert.True(t, errors.ErrNotFound.Is(err), "got %v", err)
}

// brokenMover fails every transfer out of custody.
type brokenMover struct {
	cash.CoinMover
}

func (m brokenMover) MoveCoins(db weave.KVStore, src, dest weave.Address, amount coin.Coin) error {
	if src.Equals(Custody) {
		return errors.Wrap(errors.ErrState, "custody frozen")
	}
	return m.CoinMover.MoveCoins(db, src, dest, amount)
}

func TestPayoutIsAtomic(t *testing.T) {
	f := newFixture(t, 300)
	f.ctrl = NewController(NewBucket(), x.AuthorizerFrom(f.auth), brokenMover{f.bank})
	f.create(t, "released", 100)
	f.create(t, "resolved", 100)
	for _, id := range []string{"released", "resolved"} {
		_, err := f.ctrl.Fund(f.as(f.client), f.db, id)
		require.NoError(t, err)
		_, err = f.ctrl.Deliver(f.as(f.freelancer), f.db, id, "")
		require.NoError(t, err)
	}
	_, err := f.ctrl.Dispute(f.as(f.client), f.db, "resolved", "")
	require.NoError(t, err)

	cases := map[string]func() (*Escrow, error){
		"released": func() (*Escrow, error) {
			return f.ctrl.Release(f.as(f.client), f.db, "released")
		},
		"resolved": func() (*Escrow, error) {
			return f.ctrl.Resolve(f.as(f.arbiter), f.db, "resolved", true)
		},
	}
	for id, payout := range cases {
		t.Run(id, func(t *testing.T) {
			before := len(f.events.Events())
			_, err := payout()
			assert.True(t, ErrTransferFailed.Is(err), "got %v", err)
			assert.True(t, errors.ErrState.Is(err), "got %v", err)

			e, err := f.ctrl.Escrow(f.db, id)
			require.NoError(t, err)
			assert.False(t, e.Released)
			assert.Equal(t, before, len(f.events.Events()))
		})
	}
	assert.EqualValues(t, 200, f.balance(t, Custody))
	assert.EqualValues(t, 0, f.balance(t, f.freelancer.Address()))
}

func TestPreconditions(t *testing.T) {
	f := newFixture(t, 500)
	f.create(t, "e1", 100)

	_, err := f.ctrl.Deliver(f.as(f.freelancer), f.db, "e1", "")
	assert.True(t, ErrNotFunded.Is(err), "got %v", err)
	_, err = f.ctrl.Release(f.as(f.client), f.db, "e1")
	assert.True(t, ErrNotFunded.Is(err), "got %v", err)
	_, err = f.ctrl.Dispute(f.as(f.client), f.db, "e1", "")
	assert.True(t, ErrNotFunded.Is(err), "got %v", err)

	_, err = f.ctrl.Fund(f.as(f.client), f.db, "e1")
	require.NoError(t, err)

	_, err = f.ctrl.Release(f.as(f.client), f.db, "e1")
	assert.True(t, ErrNotDelivered.Is(err), "got %v", err)
	_, err = f.ctrl.Deliver(f.as(f.client), f.db, "e1", "")
	assert.True(t, errors.ErrUnauthorized.Is(err), "got %v", err)
	_, err = f.ctrl.Dispute(f.as(f.arbiter), f.db, "e1", "")
	assert.True(t, errors.ErrUnauthorized.Is(err), "got %v", err)
	_, err = f.ctrl.Dispute(f.as(f.client), f.db, "e1", "short")
	assert.True(t, errors.ErrInput.Is(err), "got %v", err)

	_, err = f.ctrl.Deliver(f.as(f.freelancer), f.db, "e1", "")
	require.NoError(t, err)
	_, err = f.ctrl.Deliver(f.as(f.freelancer), f.db, "e1", "")
	assert.True(t, ErrAlreadyDelivered.Is(err), "got %v", err)
	_, err = f.ctrl.Release(f.as(f.freelancer), f.db, "e1")
	assert.True(t, errors.ErrUnauthorized.Is(err), "got %v", err)

	// A dispute does not stop the client from releasing.
	_, err = f.ctrl.Dispute(f.as(f.freelancer), f.db, "e1", "")
	require.NoError(t, err)
	_, err = f.ctrl.Release(f.as(f.client), f.db, "e1")
	require.NoError(t, err)
	_, err = f.ctrl.Resolve(f.as(f.arbiter), f.db, "e1", false)
	assert.True(t, ErrAlreadyResolved.Is(err), "got %v", err)
	assert.EqualValues(t, 100, f.balance(t, f.freelancer.Address()))
}

func TestCountOverflow(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, orm.NewCounter(BucketName, "count").Set(f.db, math.MaxUint32))

	_, err := f.ctrl.Create(f.as(f.client), f.db, "e1", f.client.Address(), f.freelancer.Address(), coin.NewCoin(1, "ETH"), f.arbiter.Address())
	assert.True(t, errors.ErrOverflow.Is(err), "got %v", err)

	_, err = f.ctrl.Escrow(f.db, "e1")
	assert.True(t, errors.ErrNotFound.Is(err), "got %v", err)
	assert.Empty(t, f.events.Events())
}

func TestByParty(t *testing.T) {
	f := newFixture(t, 0)
	f.create(t, "e1", 1)
	f.create(t, "e2", 2)

	other := weavetest.NewCondition()
	_, err := f.ctrl.Create(f.as(other), f.db, "e3", other.Address(), f.freelancer.Address(), coin.NewCoin(3, "ETH"), f.arbiter.Address())
	require.NoError(t, err)

	byClient, err := f.ctrl.ByParty(f.db, RoleClient, f.client.Address())
	require.NoError(t, err)
	assert.Len(t, byClient, 2)

	byFreelancer, err := f.ctrl.ByParty(f.db, RoleFreelancer, f.freelancer.Address())
	require.NoError(t, err)
	assert.Len(t, byFreelancer, 3)

	byArbiter, err := f.ctrl.ByParty(f.db, RoleArbiter, other.Address())
	require.NoError(t, err)
	assert.Empty(t, byArbiter)

	_, err = f.ctrl.ByParty(f.db, "nobody", other.Address())
	assert.True(t, orm.ErrInvalidIndex.Is(err), "got %v", err)
}
