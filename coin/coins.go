package coin

import (
	"slices"
	"strings"

	"github.com/iov-one/weave-escrow/codec"
	"github.com/iov-one/weave-escrow/errors"
)

// Coins is a wallet balance. In normalized form it holds at most one
// coin per ticker, sorted by ticker, with no zero amounts. Operations
// return a new set and never modify the receiver.
type Coins []*Coin

// CombineCoins sums all given coins into a normalized set.
func CombineCoins(cs ...Coin) (Coins, error) {
	var (
		out Coins
		err error
	)
	for _, c := range cs {
		if out, err = out.Add(c); err != nil {
			return nil, err
		}
	}
	return out, out.Validate()
}

func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	out := make(Coins, len(cs))
	for i, c := range cs {
		out[i] = c.Clone()
	}
	return out
}

// Add increases the holding of c's ticker. A ticker whose amount drops
// to zero is removed from the set.
func (cs Coins) Add(c Coin) (Coins, error) {
	out := cs.Clone()
	if c.IsZero() {
		return out, nil
	}
	i, found := out.search(c.Ticker)
	if !found {
		added := NewBigCoin(c.amount(), c.Ticker)
		return slices.Insert(out, i, &added), nil
	}
	sum, err := out[i].Add(c)
	if err != nil {
		return nil, err
	}
	if sum.IsZero() {
		return slices.Delete(out, i, i+1), nil
	}
	out[i] = &sum
	return out, nil
}

// Subtract decreases the holding of c's ticker. The result may hold
// negative amounts.
func (cs Coins) Subtract(c Coin) (Coins, error) {
	return cs.Add(c.Negative())
}

// Contains reports whether subtracting c leaves a non negative holding.
func (cs Coins) Contains(c Coin) bool {
	return cs.Balance(c.Ticker).IsGTE(c)
}

// Balance is the amount held of ticker, zero when absent.
func (cs Coins) Balance(ticker string) Coin {
	if i, ok := cs.search(ticker); ok {
		return *cs[i].Clone()
	}
	return NewCoin(0, ticker)
}

func (cs Coins) search(ticker string) (int, bool) {
	return slices.BinarySearchFunc(cs, ticker, func(c *Coin, t string) int {
		return strings.Compare(c.Ticker, t)
	})
}

func (cs Coins) IsEmpty() bool {
	return len(cs) == 0
}

// IsNonNegative is true when no holding is below zero.
func (cs Coins) IsNonNegative() bool {
	return !slices.ContainsFunc(cs, func(c *Coin) bool { return !c.IsNonNegative() })
}

func (cs Coins) Equals(o Coins) bool {
	return slices.EqualFunc(cs, o, func(a, b *Coin) bool { return a.Equals(*b) })
}

// Validate checks the set is normalized and every coin is valid.
func (cs Coins) Validate() error {
	for i, c := range cs {
		if c == nil {
			return errors.Wrap(errors.ErrEmpty, "nil coin")
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if i > 0 && cs[i-1].Ticker >= c.Ticker {
			return errors.Wrap(errors.ErrCurrency, "not sorted or not unique")
		}
		if c.IsZero() {
			return errors.Wrap(errors.ErrAmount, "zero coins")
		}
	}
	return nil
}

// Marshal writes the set as a repeated coin field.
func (cs Coins) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	for _, c := range cs {
		w.Message(1, c)
	}
	return w.Result()
}

// UnmarshalCoins reads a set written by Coins.Marshal.
func UnmarshalCoins(raw []byte) (Coins, error) {
	var cs Coins
	err := codec.Decode(raw, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		c := new(Coin)
		if err := f.Message(c); err != nil {
			return err
		}
		cs = append(cs, c)
		return nil
	})
	return cs, err
}
