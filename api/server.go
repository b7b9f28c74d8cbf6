/*
Package api exposes the escrow application over HTTP. Transactions are
submitted as signed bytes and executed as their own block. Reads go
through the ABCI query router.
*/
package api

import (
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/app"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/escrow"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// Backend is the part of the application the server needs.
type Backend interface {
	app.Querier
	SubmitTx(now time.Time, txBytes []byte) (*abci.ResponseDeliverTx, int64, error)
}

// Server serves the HTTP API. Submissions are serialized, so that each
// transaction is executed and committed before the next one starts.
type Server struct {
	mu      sync.Mutex
	backend Backend
	logger  log.Logger
	debug   bool
	now     func() time.Time
}

// NewServer returns a server on top of the given backend.
func NewServer(b Backend, logger log.Logger, debug bool) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Server{
		backend: b,
		logger:  logger.With("module", "api"),
		debug:   debug,
		now:     time.Now,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests())

	router.GET("/health", s.health)
	router.POST("/tx", s.submitTx)
	router.GET("/escrows", s.listEscrows)
	router.GET("/escrows/count", s.countEscrows)
	router.GET("/escrows/:id", s.getEscrow)
	router.GET("/wallets/:address", s.getWallet)
	return router
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).Milliseconds())
	}
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// TxRequest carries a hex encoded signed transaction.
type TxRequest struct {
	Tx string `json:"tx" binding:"required"`
}

// TxResponse describes an executed transaction.
type TxResponse struct {
	Height int64             `json:"height"`
	Data   string            `json:"data,omitempty"`
	Log    string            `json:"log,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

func (s *Server) submitTx(c *gin.Context) {
	var req TxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, errors.Wrap(errors.ErrInput, err.Error()), s.debug)
		return
	}
	raw, err := hex.DecodeString(req.Tx)
	if err != nil {
		RespondError(c, errors.Wrap(errors.ErrInput, "tx must be hex encoded"), s.debug)
		return
	}

	s.mu.Lock()
	res, height, err := s.backend.SubmitTx(s.now(), raw)
	s.mu.Unlock()
	if err != nil {
		RespondError(c, err, s.debug)
		return
	}

	out := TxResponse{
		Height: height,
		Data:   hex.EncodeToString(res.Data),
		Log:    res.Log,
	}
	if len(res.Tags) > 0 {
		out.Tags = make(map[string]string, len(res.Tags))
		for _, kv := range res.Tags {
			out.Tags[string(kv.Key)] = string(kv.Value)
		}
	}
	RespondOK(c, out)
}

// EscrowView is the JSON representation of an escrow.
type EscrowView struct {
	ID            string        `json:"id"`
	Client        weave.Address `json:"client"`
	Freelancer    weave.Address `json:"freelancer"`
	Arbiter       weave.Address `json:"arbiter"`
	Amount        coin.Coin     `json:"amount"`
	Funded        bool          `json:"funded"`
	Delivered     bool          `json:"delivered"`
	Released      bool          `json:"released"`
	Disputed      bool          `json:"disputed"`
	DeliveryNote  string        `json:"delivery_note,omitempty"`
	DisputeReason string        `json:"dispute_reason,omitempty"`
}

// NewEscrowView returns the JSON representation of e.
func NewEscrowView(e *escrow.Escrow) EscrowView {
	return EscrowView{
		ID:            e.ID,
		Client:        e.Client,
		Freelancer:    e.Freelancer,
		Arbiter:       e.Arbiter,
		Amount:        e.Coin(),
		Funded:        e.Funded,
		Delivered:     e.Delivered,
		Released:      e.Released,
		Disputed:      e.Disputed,
		DeliveryNote:  e.DeliveryNote,
		DisputeReason: e.DisputeReason,
	}
}

func (s *Server) getEscrow(c *gin.Context) {
	var e escrow.Escrow
	if err := app.QueryOne(s.backend, "/escrows", []byte(c.Param("id")), &e); err != nil {
		RespondError(c, err, s.debug)
		return
	}
	RespondOK(c, NewEscrowView(&e))
}

// listEscrows returns all escrows a party takes part in. Exactly one of
// the role parameters must be given.
func (s *Server) listEscrows(c *gin.Context) {
	var role, enc string
	for _, r := range []string{escrow.RoleClient, escrow.RoleFreelancer, escrow.RoleArbiter} {
		v, ok := c.GetQuery(r)
		if !ok {
			continue
		}
		if role != "" {
			RespondError(c, errors.Wrap(errors.ErrInput, "only one role filter allowed"), s.debug)
			return
		}
		role, enc = r, v
	}
	if role == "" {
		RespondError(c, errors.Wrap(errors.ErrInput, "client, freelancer or arbiter filter required"), s.debug)
		return
	}
	addr, err := weave.ParseAddress(enc)
	if err != nil {
		RespondError(c, err, s.debug)
		return
	}

	models, err := app.QueryModels(s.backend, "/escrows/"+role, addr)
	if err != nil {
		RespondError(c, err, s.debug)
		return
	}
	views := make([]EscrowView, 0, len(models))
	for _, m := range models {
		var e escrow.Escrow
		if err := e.Unmarshal(m.Value); err != nil {
			RespondError(c, err, s.debug)
			return
		}
		views = append(views, NewEscrowView(&e))
	}
	RespondOK(c, gin.H{"escrows": views})
}

func (s *Server) countEscrows(c *gin.Context) {
	models, err := app.QueryModels(s.backend, "/escrows/count", nil)
	if err != nil {
		RespondError(c, err, s.debug)
		return
	}
	if len(models) != 1 {
		RespondError(c, errors.Wrap(errors.ErrState, "count query"), s.debug)
		return
	}
	n, err := escrow.DecodeCount(models[0].Value)
	if err != nil {
		RespondError(c, err, s.debug)
		return
	}
	RespondOK(c, gin.H{"count": n})
}

// WalletView is the JSON representation of a wallet.
type WalletView struct {
	Address weave.Address `json:"address"`
	Coins   coin.Coins    `json:"coins"`
}

// getWallet returns the balance of an address. Unknown addresses hold no
// coins.
func (s *Server) getWallet(c *gin.Context) {
	addr, err := weave.ParseAddress(c.Param("address"))
	if err != nil {
		RespondError(c, err, s.debug)
		return
	}
	view := WalletView{Address: addr, Coins: coin.Coins{}}
	var w cash.Wallet
	switch err := app.QueryOne(s.backend, "/wallets", addr, &w); {
	case err == nil:
		view.Coins = w.Coins
	case !errors.ErrNotFound.Is(err):
		RespondError(c, err, s.debug)
		return
	}
	RespondOK(c, view)
}
