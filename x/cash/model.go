package cash

import (
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
)

const bucketName = "cash"

// Wallet holds the balance of a single address.
//
// Fields:
//
//	1: repeated coin.Coin coins
type Wallet struct {
	Coins coin.Coins
}

var _ orm.Model = (*Wallet)(nil)

// Validate requires the balance to be normalized and non negative.
func (w *Wallet) Validate() error {
	if err := w.Coins.Validate(); err != nil {
		return errors.Wrap(err, "coins")
	}
	if !w.Coins.IsNonNegative() {
		return errors.Wrap(errors.ErrAmount, "negative balance")
	}
	return nil
}

// Copy returns an independent copy of the wallet.
func (w *Wallet) Copy() orm.CloneableData {
	return &Wallet{Coins: w.Coins.Clone()}
}

// Marshal encodes the wallet.
func (w *Wallet) Marshal() ([]byte, error) {
	return w.Coins.Marshal()
}

// Unmarshal decodes the wallet.
func (w *Wallet) Unmarshal(raw []byte) error {
	coins, err := coin.UnmarshalCoins(raw)
	if err != nil {
		return err
	}
	w.Coins = coins
	return nil
}

// Add increases the wallet balance.
func (w *Wallet) Add(c coin.Coin) error {
	coins, err := w.Coins.Add(c)
	if err != nil {
		return err
	}
	w.Coins = coins
	return nil
}

// Subtract decreases the wallet balance. It fails if the wallet does not
// hold enough.
func (w *Wallet) Subtract(c coin.Coin) error {
	if !w.Coins.Contains(c) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "balance %s, need %s", w.Coins.Balance(c.Ticker), c)
	}
	coins, err := w.Coins.Subtract(c)
	if err != nil {
		return err
	}
	w.Coins = coins
	return nil
}

// NewBucket returns the bucket all wallets are stored in.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(orm.NewBucket(bucketName, orm.NewSimpleObj(nil, &Wallet{})))
}
