package weave

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/iov-one/weave-escrow/errors"
)

// AddressLength is the size of every address in bytes.
const AddressLength = 20

// AddressPrefix is the human readable part of bech32 addresses.
var AddressPrefix = "esc"

// Address identifies an account. It is the truncated sha256 of the
// condition that controls it.
type Address []byte

func NewAddress(data []byte) Address {
	if data == nil {
		return nil
	}
	sum := sha256.Sum256(data)
	return Address(sum[:AddressLength])
}

func (a Address) Equals(o Address) bool {
	return bytes.Equal(a, o)
}

func (a Address) Validate() error {
	switch len(a) {
	case 0:
		return errors.Wrap(errors.ErrEmpty, "address")
	case AddressLength:
		return nil
	}
	return errors.Wrapf(errors.ErrInput, "address: %v", a)
}

// String is the upper case hex encoding.
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	return strings.ToUpper(hex.EncodeToString(a))
}

// Bech32 encodes the address with AddressPrefix. It falls back to the hex
// form if encoding fails.
func (a Address) Bech32() string {
	data, err := bech32.ConvertBits(a, 8, 5, true)
	if err == nil {
		var enc string
		if enc, err = bech32.Encode(AddressPrefix, data); err == nil {
			return enc
		}
	}
	return a.String()
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToUpper(hex.EncodeToString(a)))
}

// UnmarshalJSON accepts every format ParseAddress does. An empty string
// is a nil address.
func (a *Address) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(err, "cannot decode json")
	}
	if s == "" {
		*a = nil
		return nil
	}
	addr, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddress decodes an address given as
//
//	hex:<hex>              the default when there is no prefix
//	cond:<ext>/<typ>/<hex> the address of that condition
//	bech32:<bech32>        also detected by the AddressPrefix
func ParseAddress(enc string) (Address, error) {
	format, body, found := strings.Cut(enc, ":")
	if !found {
		format, body = "hex", enc
		if strings.HasPrefix(strings.ToLower(enc), AddressPrefix+"1") {
			format = "bech32"
		}
	}

	var addr Address
	switch format {
	case "hex":
		raw, err := hex.DecodeString(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInput, "cannot decode hex")
		}
		addr = raw
	case "cond":
		c, err := parseCondition(body)
		if err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		addr = c.Address()
	case "bech32":
		raw, err := fromBech32(body)
		if err != nil {
			return nil, err
		}
		addr = raw
	default:
		return nil, errors.Wrapf(errors.ErrType, "unknown format %q", format)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}

// fromBech32 returns the payload of a bech32 string, whatever its human
// readable part.
func fromBech32(enc string) ([]byte, error) {
	_, data, err := bech32.Decode(enc)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "deserialize bech32: %s", err)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "bech32 payload: %s", err)
	}
	return raw, nil
}
