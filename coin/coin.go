/*
Package coin defines the fungible amounts moved by the transfer service
and held in escrow. A coin is an arbitrary precision signed integer
amount of a single ticker.
*/
package coin

import (
	"encoding/json"
	"math/big"
	"regexp"
	"strings"

	"github.com/iov-one/weave-escrow/codec"
	"github.com/iov-one/weave-escrow/errors"
)

// IsCC is the RegExp to ensure valid currency codes
var IsCC = regexp.MustCompile(`^[A-Z]{3,4}$`).MatchString

// Coin is an amount of a single ticker.
type Coin struct {
	Ticker string
	Amount *big.Int
}

// NewCoin creates a new coin object
func NewCoin(amount int64, ticker string) Coin {
	return Coin{
		Ticker: ticker,
		Amount: big.NewInt(amount),
	}
}

// NewCoinp returns a pointer to a new coin.
func NewCoinp(amount int64, ticker string) *Coin {
	c := NewCoin(amount, ticker)
	return &c
}

// NewBigCoin creates a coin holding a copy of the given amount.
func NewBigCoin(amount *big.Int, ticker string) Coin {
	return Coin{
		Ticker: ticker,
		Amount: new(big.Int).Set(amount),
	}
}

// ID returns a coin ticker name.
func (c Coin) ID() string {
	return c.Ticker
}

func (c Coin) amount() *big.Int {
	if c.Amount == nil {
		return new(big.Int)
	}
	return c.Amount
}

// Add combines two coins of the same ticker.
func (c Coin) Add(o Coin) (Coin, error) {
	if !c.SameType(o) {
		return Coin{}, errors.Wrapf(errors.ErrCurrency, "adding %s to %s", o.Ticker, c.Ticker)
	}
	return Coin{
		Ticker: c.Ticker,
		Amount: new(big.Int).Add(c.amount(), o.amount()),
	}, nil
}

// Negative returns the opposite coin value
//
//	c.Add(c.Negative()).IsZero() == true
func (c Coin) Negative() Coin {
	return Coin{
		Ticker: c.Ticker,
		Amount: new(big.Int).Neg(c.amount()),
	}
}

// Subtract given amount.
func (c Coin) Subtract(amount Coin) (Coin, error) {
	return c.Add(amount.Negative())
}

// Compare will check values of two coins, without inspecting the ticker
// code.
//
// Returns 1 if c is larger, -1 if o is larger, 0 if equal
func (c Coin) Compare(o Coin) int {
	return c.amount().Cmp(o.amount())
}

// Equals returns true if all fields are identical
func (c Coin) Equals(o Coin) bool {
	return c.Ticker == o.Ticker && c.Compare(o) == 0
}

// IsEmpty returns true on null or zero amount
func IsEmpty(c *Coin) bool {
	return c == nil || c.IsZero()
}

// IsZero returns true amounts are 0
func (c Coin) IsZero() bool {
	return c.amount().Sign() == 0
}

// IsPositive returns true if the value is greater than 0
func (c Coin) IsPositive() bool {
	return c.amount().Sign() > 0
}

// IsNonNegative returns true if the value is 0 or higher
func (c Coin) IsNonNegative() bool {
	return c.amount().Sign() >= 0
}

// IsGTE returns true if c is same type and at least
// as large as o.
func (c Coin) IsGTE(o Coin) bool {
	return c.SameType(o) && c.Compare(o) >= 0
}

// SameType returns true if they have the same currency
func (c Coin) SameType(o Coin) bool {
	return c.Ticker == o.Ticker
}

// Clone provides an independent copy of a coin pointer
func (c *Coin) Clone() *Coin {
	if c == nil {
		return nil
	}
	cp := NewBigCoin(c.amount(), c.Ticker)
	return &cp
}

// Validate ensures that the coin is in the valid range
// and valid currency code.
func (c Coin) Validate() error {
	if !IsCC(c.Ticker) {
		return errors.Wrapf(errors.ErrCurrency, "invalid currency: %s", c.Ticker)
	}
	if c.Amount == nil {
		return errors.Wrap(errors.ErrAmount, "missing amount")
	}
	return nil
}

// Marshal encodes the coin. The amount is kept in its decimal form so
// that it is not limited in size.
func (c *Coin) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.String(1, c.Ticker)
	if c.Amount != nil {
		w.String(2, c.Amount.String())
	}
	return w.Result()
}

// Unmarshal decodes the coin.
func (c *Coin) Unmarshal(raw []byte) error {
	*c = Coin{}
	return codec.Decode(raw, func(f codec.Field) error {
		switch f.Num {
		case 1:
			s, err := f.String()
			c.Ticker = s
			return err
		case 2:
			s, err := f.String()
			if err != nil {
				return err
			}
			n, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return errors.Wrapf(errors.ErrAmount, "invalid amount %q", s)
			}
			c.Amount = n
		}
		return nil
	})
}

// String provides a human readable representation of the coin that can be
// parsed back with ParseHumanFormat.
func (c Coin) String() string {
	s := c.amount().String()
	if c.Ticker != "" {
		s += " " + c.Ticker
	}
	return s
}

// MarshalJSON encodes the coin in the human readable format.
func (c Coin) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts both the human readable format and an object with
// ticker and amount attributes.
func (c *Coin) UnmarshalJSON(raw []byte) error {
	var human string
	if err := json.Unmarshal(raw, &human); err == nil {
		parsed, err := ParseHumanFormat(human)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var coin struct {
		Ticker string
		Amount json.Number
	}
	if err := json.Unmarshal(raw, &coin); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	n, ok := new(big.Int).SetString(coin.Amount.String(), 10)
	if !ok {
		return errors.Wrapf(errors.ErrAmount, "invalid amount %q", coin.Amount)
	}
	c.Ticker = coin.Ticker
	c.Amount = n
	return nil
}

var humanCoinFormatRx = regexp.MustCompile(`^(\-?\d+)\s*([A-Z]{3,4})$`)

// ParseHumanFormat parse a human readable coin representation. Accepted format
// is a string:
//
//	"<amount> <ticker>"
func ParseHumanFormat(h string) (Coin, error) {
	m := humanCoinFormatRx.FindStringSubmatch(strings.TrimSpace(h))
	if m == nil {
		return Coin{}, errors.Wrapf(errors.ErrInput, "invalid coin format %q", h)
	}
	n, ok := new(big.Int).SetString(m[1], 10)
	if !ok {
		return Coin{}, errors.Wrapf(errors.ErrAmount, "invalid amount %q", m[1])
	}
	return Coin{Ticker: m[2], Amount: n}, nil
}

// Set updates this coin value to what is provided. This method implements
// flag.Value interface.
func (c *Coin) Set(raw string) error {
	val, err := ParseHumanFormat(raw)
	if err != nil {
		return err
	}
	*c = val
	return nil
}
