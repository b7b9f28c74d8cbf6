package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
)

// CoinIssuer creates coins out of nothing. Genesis uses it to back the
// escrows that are already funded.
type CoinIssuer interface {
	IssueCoins(db weave.KVStore, dest weave.Address, amount coin.Coin) error
}

// Initializer fulfils the Initializer interface to load data from the genesis file
type Initializer struct {
	Issuer CoinIssuer
}

var _ weave.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial escrow info from genesis and save it in
// the database. Funded escrows that are not released get their amount
// issued to the custody address.
func (i *Initializer) FromGenesis(opts weave.Options, db weave.KVStore) error {
	var escrows []struct {
		ID            string        `json:"id"`
		Client        weave.Address `json:"client"`
		Freelancer    weave.Address `json:"freelancer"`
		Arbiter       weave.Address `json:"arbiter"`
		Amount        coin.Coin     `json:"amount"`
		Funded        bool          `json:"funded"`
		Delivered     bool          `json:"delivered"`
		Released      bool          `json:"released"`
		Disputed      bool          `json:"disputed"`
		DeliveryNote  string        `json:"delivery_note"`
		DisputeReason string        `json:"dispute_reason"`
	}
	if err := opts.ReadOptions("escrow", &escrows); err != nil {
		return err
	}

	bucket := NewBucket()
	for j, g := range escrows {
		e := &Escrow{
			ID:            g.ID,
			Client:        g.Client,
			Freelancer:    g.Freelancer,
			Arbiter:       g.Arbiter,
			Token:         g.Amount.Ticker,
			Amount:        g.Amount.Amount,
			Funded:        g.Funded,
			Delivered:     g.Delivered,
			Released:      g.Released,
			Disputed:      g.Disputed,
			DeliveryNote:  g.DeliveryNote,
			DisputeReason: g.DisputeReason,
		}
		if err := e.Validate(); err != nil {
			return errors.Wrapf(err, "escrow #%d", j)
		}
		if err := bucket.Create(db, e); err != nil {
			return errors.Wrapf(err, "escrow #%d", j)
		}
		if !e.Funded || e.Released {
			continue
		}
		if i.Issuer == nil {
			return errors.Wrapf(errors.ErrHuman, "escrow #%d is funded but no coin issuer is configured", j)
		}
		if err := i.Issuer.IssueCoins(db, Custody, e.Coin()); err != nil {
			return errors.Wrapf(err, "escrow #%d custody", j)
		}
	}
	return nil
}
