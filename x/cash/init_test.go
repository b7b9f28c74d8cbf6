package cash

import (
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenesis(t *testing.T) {
	addr := weave.Address{1, 2, 3, 4, 5, 6, 7, 8, 9, 0, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x28, 0x29, 0x30}

	cases := map[string]struct {
		opts    weave.Options
		wantErr *errors.Error
		want    coin.Coins
	}{
		"no data": {
			opts: weave.Options{},
		},
		"other extension": {
			opts: weave.Options{"foo": []byte(`"bar"`)},
		},
		"malformed": {
			opts:    weave.Options{"cash": []byte(`[{"coins": 123}]`)},
			wantErr: errors.ErrInput,
		},
		"missing address": {
			opts:    weave.Options{"cash": []byte(`[{"coins": ["5 ETH"]}]`)},
			wantErr: errors.ErrEmpty,
		},
		"one account": {
			opts: weave.Options{"cash": []byte(`[{
				"address": "0102030405060708090021222324252627282930",
				"coins": ["50 ETH", {"ticker": "IOV", "amount": 7}, "5 ETH"]
			}]`)},
			want: coin.Coins{coin.NewCoinp(55, "ETH"), coin.NewCoinp(7, "IOV")},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			kv := store.MemStore()
			err := Initializer{}.FromGenesis(tc.opts, kv)
			if tc.wantErr != nil {
				assert.True(t, tc.wantErr.Is(err), "got %+v", err)
				return
			}
			require.NoError(t, err)

			bal, err := NewController(NewBucket()).Balance(kv, addr)
			require.NoError(t, err)
			assert.True(t, tc.want.Equals(bal), "got %v", bal)
		})
	}
}
