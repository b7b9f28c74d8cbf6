package cash

import (
	"testing"

	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCoins(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController(NewBucket())
	addr := weavetest.NewCondition().Address()

	require.NoError(t, ctrl.IssueCoins(db, addr, coin.NewCoin(50, "ETH")))
	require.NoError(t, ctrl.IssueCoins(db, addr, coin.NewCoin(20, "IOV")))
	require.NoError(t, ctrl.IssueCoins(db, addr, coin.NewCoin(-10, "ETH")))

	bal, err := ctrl.Balance(db, addr)
	require.NoError(t, err)
	assert.True(t, bal.Balance("ETH").Equals(coin.NewCoin(40, "ETH")))
	assert.True(t, bal.Balance("IOV").Equals(coin.NewCoin(20, "IOV")))

	err = ctrl.IssueCoins(db, addr, coin.NewCoin(-100, "IOV"))
	assert.True(t, errors.ErrInsufficientAmount.Is(err))

	err = ctrl.IssueCoins(db, addr, coin.NewCoin(1, "bad"))
	assert.True(t, errors.ErrCurrency.Is(err))

	err = ctrl.IssueCoins(db, nil, coin.NewCoin(1, "ETH"))
	assert.Error(t, err)
}

func TestMoveCoins(t *testing.T) {
	src := weavetest.NewCondition().Address()
	dst := weavetest.NewCondition().Address()

	cases := map[string]struct {
		initial  coin.Coin
		amount   coin.Coin
		wantErr  *errors.Error
		wantSrc  int64
		wantDest int64
	}{
		"move part": {
			initial:  coin.NewCoin(100, "ETH"),
			amount:   coin.NewCoin(30, "ETH"),
			wantSrc:  70,
			wantDest: 30,
		},
		"move everything": {
			initial:  coin.NewCoin(100, "ETH"),
			amount:   coin.NewCoin(100, "ETH"),
			wantSrc:  0,
			wantDest: 100,
		},
		"too poor": {
			initial:  coin.NewCoin(10, "ETH"),
			amount:   coin.NewCoin(30, "ETH"),
			wantErr:  errors.ErrInsufficientAmount,
			wantSrc:  10,
			wantDest: 0,
		},
		"wrong ticker": {
			initial:  coin.NewCoin(100, "ETH"),
			amount:   coin.NewCoin(1, "IOV"),
			wantErr:  errors.ErrInsufficientAmount,
			wantSrc:  100,
			wantDest: 0,
		},
		"zero amount": {
			initial:  coin.NewCoin(100, "ETH"),
			amount:   coin.NewCoin(0, "ETH"),
			wantErr:  errors.ErrAmount,
			wantSrc:  100,
			wantDest: 0,
		},
		"negative amount": {
			initial:  coin.NewCoin(100, "ETH"),
			amount:   coin.NewCoin(-1, "ETH"),
			wantErr:  errors.ErrAmount,
			wantSrc:  100,
			wantDest: 0,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController(NewBucket())
			require.NoError(t, ctrl.IssueCoins(db, src, tc.initial))

			err := ctrl.MoveCoins(db, src, dst, tc.amount)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "got %+v", err)
			} else {
				require.NoError(t, err)
			}

			srcBal, err := ctrl.Balance(db, src)
			require.NoError(t, err)
			assert.Equal(t, tc.wantSrc, srcBal.Balance(tc.initial.Ticker).Amount.Int64())

			destBal, err := ctrl.Balance(db, dst)
			require.NoError(t, err)
			assert.Equal(t, tc.wantDest, destBal.Balance(tc.initial.Ticker).Amount.Int64())
		})
	}
}

func TestMoveCoinsToSelf(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController(NewBucket())
	addr := weavetest.NewCondition().Address()
	require.NoError(t, ctrl.IssueCoins(db, addr, coin.NewCoin(5, "ETH")))

	require.NoError(t, ctrl.MoveCoins(db, addr, addr, coin.NewCoin(5, "ETH")))
	err := ctrl.MoveCoins(db, addr, addr, coin.NewCoin(6, "ETH"))
	assert.True(t, errors.ErrInsufficientAmount.Is(err))

	bal, err := ctrl.Balance(db, addr)
	require.NoError(t, err)
	assert.True(t, bal.Balance("ETH").Equals(coin.NewCoin(5, "ETH")))
}
