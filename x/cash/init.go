package cash

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
)

// GenesisAccount is one entry of the "cash" genesis section. The
// address accepts every weave.ParseAddress format.
type GenesisAccount struct {
	Address weave.Address `json:"address"`
	Coins   []coin.Coin   `json:"coins"`
}

// Initializer issues the genesis balances.
type Initializer struct{}

var _ weave.Initializer = Initializer{}

func (Initializer) FromGenesis(opts weave.Options, db weave.KVStore) error {
	var accounts []GenesisAccount
	if err := opts.ReadOptions("cash", &accounts); err != nil {
		return err
	}
	bank := NewController(NewBucket())
	for n, a := range accounts {
		if err := a.issue(bank, db); err != nil {
			return errors.Wrapf(err, "account %d", n)
		}
	}
	return nil
}

func (a GenesisAccount) issue(bank Controller, db weave.KVStore) error {
	if err := a.Address.Validate(); err != nil {
		return err
	}
	for _, c := range a.Coins {
		if err := bank.IssueCoins(db, a.Address, c); err != nil {
			return errors.Wrapf(err, "coin %s", c)
		}
	}
	return nil
}
