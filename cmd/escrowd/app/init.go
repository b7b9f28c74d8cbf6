package app

import (
	"encoding/json"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/cash"
)

// GenInitOptions produces the app state of a development chain: the given
// address owns the given coins and no escrow exists yet.
func GenInitOptions(owner weave.Address, coins []coin.Coin) (json.RawMessage, error) {
	if err := owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	for _, c := range coins {
		if err := c.Validate(); err != nil {
			return nil, errors.Wrapf(err, "coin %s", c)
		}
	}
	state := map[string]interface{}{
		"cash": []cash.GenesisAccount{
			{Address: owner, Coins: coins},
		},
		"escrow": []interface{}{},
	}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "marshal app state: %s", err)
	}
	return raw, nil
}
