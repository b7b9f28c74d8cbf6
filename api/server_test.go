package api_test

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/api"
	"github.com/iov-one/weave-escrow/app"
	escrowd "github.com/iov-one/weave-escrow/cmd/escrowd/app"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/iov-one/weave-escrow/x/sigs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainID = "api-test-chain"

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	t       *testing.T
	app     *app.BaseApp
	handler http.Handler

	client, freelancer, arbiter *crypto.PrivateKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	a, kv, err := escrowd.GenerateApp(escrowd.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	f := &fixture{
		t:          t,
		app:        a,
		client:     crypto.GenPrivKeyEd25519(),
		freelancer: crypto.GenPrivKeyEd25519(),
		arbiter:    crypto.GenPrivKeyEd25519(),
	}
	state, err := escrowd.GenInitOptions(f.client.PublicKey().Address(), []coin.Coin{coin.NewCoin(500, "ETH")})
	require.NoError(t, err)
	require.NoError(t, a.InitFromGenesis(&app.Genesis{ChainID: chainID, AppState: state}))

	f.handler = api.NewServer(a, nil, false).Router()
	return f
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) signed(signer *crypto.PrivateKey, msg weave.Msg) api.TxRequest {
	f.t.Helper()
	seq, err := sigs.NextSequence(f.app.DeliverStore(), signer.PublicKey())
	require.NoError(f.t, err)
	tx := escrowd.NewTx(msg)
	require.NoError(f.t, tx.Sign(signer, chainID, seq))
	raw, err := tx.Marshal()
	require.NoError(f.t, err)
	return api.TxRequest{Tx: hex.EncodeToString(raw)}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestEscrowOverHTTP(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	amount := coin.NewCoin(200, "ETH")
	rec = f.do(http.MethodPost, "/tx", f.signed(f.client, &escrow.CreateMsg{
		EscrowID:   "job-1",
		Client:     f.client.PublicKey().Address(),
		Freelancer: f.freelancer.PublicKey().Address(),
		Arbiter:    f.arbiter.PublicKey().Address(),
		Amount:     &amount,
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var txRes api.TxResponse
	decode(t, rec, &txRes)
	assert.EqualValues(t, 2, txRes.Height)
	assert.Equal(t, "job-1", txRes.Tags["escrow.created"])

	rec = f.do(http.MethodPost, "/tx", f.signed(f.client, &escrow.FundMsg{EscrowID: "job-1"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, "/tx", f.signed(f.client, &escrow.FundMsg{EscrowID: "job-1"}))
	assert.Equal(t, http.StatusConflict, rec.Code)
	var env api.ErrorEnvelope
	decode(t, rec, &env)
	assert.EqualValues(t, 2002, env.Error.Code)

	rec = f.do(http.MethodGet, "/escrows/job-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view struct {
		ID       string `json:"id"`
		Amount   string `json:"amount"`
		Funded   bool   `json:"funded"`
		Released bool   `json:"released"`
	}
	decode(t, rec, &view)
	assert.Equal(t, "job-1", view.ID)
	assert.True(t, view.Funded)
	assert.False(t, view.Released)
	assert.Contains(t, view.Amount, "200")

	rec = f.do(http.MethodGet, "/escrows?freelancer="+f.freelancer.PublicKey().Address().String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list struct {
		Escrows []json.RawMessage `json:"escrows"`
	}
	decode(t, rec, &list)
	assert.Len(t, list.Escrows, 1)

	rec = f.do(http.MethodGet, "/escrows?arbiter="+f.client.PublicKey().Address().String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Empty(t, list.Escrows)

	rec = f.do(http.MethodGet, "/escrows/count", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var count struct {
		Count uint32 `json:"count"`
	}
	decode(t, rec, &count)
	assert.EqualValues(t, 1, count.Count)

	rec = f.do(http.MethodGet, "/wallets/"+f.client.PublicKey().Address().String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var wallet struct {
		Coins []string `json:"coins"`
	}
	decode(t, rec, &wallet)
	require.Len(t, wallet.Coins, 1)
	assert.Contains(t, wallet.Coins[0], "300")
}

func TestHTTPErrors(t *testing.T) {
	f := newFixture(t)

	cases := map[string]struct {
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		"missing escrow": {
			method: http.MethodGet, path: "/escrows/nope",
			wantStatus: http.StatusNotFound,
		},
		"list without filter": {
			method: http.MethodGet, path: "/escrows",
			wantStatus: http.StatusBadRequest,
		},
		"list with two filters": {
			method: http.MethodGet, path: "/escrows?client=00&arbiter=00",
			wantStatus: http.StatusBadRequest,
		},
		"bad address": {
			method: http.MethodGet, path: "/wallets/zz",
			wantStatus: http.StatusBadRequest,
		},
		"tx is not hex": {
			method: http.MethodPost, path: "/tx", body: api.TxRequest{Tx: "xyz"},
			wantStatus: http.StatusBadRequest,
		},
		"tx missing": {
			method: http.MethodPost, path: "/tx", body: map[string]string{},
			wantStatus: http.StatusBadRequest,
		},
		"resolve without dispute": {
			method: http.MethodPost, path: "/tx",
			body:       f.signed(f.arbiter, &escrow.ResolveMsg{EscrowID: "job-1"}),
			wantStatus: http.StatusNotFound,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			var env api.ErrorEnvelope
			decode(t, rec, &env)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestUnknownWalletIsEmpty(t *testing.T) {
	f := newFixture(t)
	addr := crypto.GenPrivKeyEd25519().PublicKey().Address()
	rec := f.do(http.MethodGet, "/wallets/"+addr.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var wallet struct {
		Coins []string `json:"coins"`
	}
	decode(t, rec, &wallet)
	assert.Empty(t, wallet.Coins)
}
