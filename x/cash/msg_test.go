package cash

import (
	"testing"

	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/stretchr/testify/require"
)

func TestSendMsgValidate(t *testing.T) {
	src := weavetest.NewCondition().Address()
	dst := weavetest.NewCondition().Address()
	amount := coin.NewCoin(10, "ETH")
	negative := coin.NewCoin(-10, "ETH")
	badTicker := coin.NewCoin(10, "eth")

	cases := map[string]struct {
		msg       SendMsg
		wantField string
		wantErr   *errors.Error
	}{
		"valid": {
			msg: SendMsg{Source: src, Destination: dst, Amount: &amount, Memo: "thanks"},
		},
		"missing amount": {
			msg:       SendMsg{Source: src, Destination: dst},
			wantField: "Amount",
			wantErr:   errors.ErrAmount,
		},
		"negative amount": {
			msg:       SendMsg{Source: src, Destination: dst, Amount: &negative},
			wantField: "Amount",
			wantErr:   errors.ErrAmount,
		},
		"bad ticker": {
			msg:       SendMsg{Source: src, Destination: dst, Amount: &badTicker},
			wantField: "Amount",
			wantErr:   errors.ErrCurrency,
		},
		"missing destination": {
			msg:       SendMsg{Source: src, Amount: &amount},
			wantField: "Destination",
			wantErr:   errors.ErrEmpty,
		},
		"memo too long": {
			msg:       SendMsg{Source: src, Destination: dst, Amount: &amount, Memo: string(make([]byte, 129))},
			wantField: "Memo",
			wantErr:   errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr == nil {
				require.Nil(t, err)
				return
			}
			errs := errors.FieldErrors(err, tc.wantField)
			require.Len(t, errs, 1, "got %v", err)
			require.True(t, tc.wantErr.Is(errs[0]), "got %v", errs[0])
		})
	}
}

func TestSendMsgEncoding(t *testing.T) {
	amount := coin.NewCoin(10, "ETH")
	msg := SendMsg{
		Source:      weavetest.NewCondition().Address(),
		Destination: weavetest.NewCondition().Address(),
		Amount:      &amount,
		Memo:        "for the logo",
	}
	raw, err := msg.Marshal()
	require.Nil(t, err)

	var loaded SendMsg
	require.Nil(t, loaded.Unmarshal(raw))
	require.Equal(t, msg.Source, loaded.Source)
	require.Equal(t, msg.Destination, loaded.Destination)
	require.Equal(t, msg.Memo, loaded.Memo)
	require.Equal(t, true, loaded.Amount.Equals(amount))
}
