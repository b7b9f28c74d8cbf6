package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/app"
	escrowd "github.com/iov-one/weave-escrow/cmd/escrowd/app"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/events"
	"github.com/iov-one/weave-escrow/x/sigs"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/crypto/ed25519"
)

// flHome registers the flag pointing to the home directory.
func flHome(fl *flag.FlagSet) *string {
	return fl.String("home", env("ESCROWD_HOME", defaultHome()),
		"Directory holding the configuration, genesis and store. You can use ESCROWD_HOME environment variable to set it.")
}

// flKey registers the flag pointing to the private key file.
func flKey(fl *flag.FlagSet) *string {
	return fl.String("key", env("ESCROWD_PRIV_KEY", defaultHome()+".priv.key"),
		"Path to the private key file that transaction should be signed with. You can use ESCROWD_PRIV_KEY environment variable to set it.")
}

// flAddress returns a value that is being initialized with given default value
// and optionally overwritten by a command line argument if provided. This
// function follows Go's flag package convention.
func flAddress(fl *flag.FlagSet, name, usage string) *weave.Address {
	var a flagAddress
	fl.Var(&a, name, usage)
	return (*weave.Address)(&a)
}

type flagAddress weave.Address

func (a flagAddress) String() string {
	if len(a) == 0 {
		return ""
	}
	return weave.Address(a).String()
}

func (a *flagAddress) Set(raw string) error {
	addr, err := weave.ParseAddress(raw)
	if err != nil {
		return err
	}
	*a = flagAddress(addr)
	return nil
}

// newLogger returns a logger writing to stderr at the given level.
func newLogger(level string) (log.Logger, error) {
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "log level: %s", err)
	}
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr))
	return log.NewFilter(logger, opt).With("module", "escrowd"), nil
}

// newSink returns the destination of committed events. Events are always
// logged and additionally published to kafka if configured.
func newSink(conf *Config, logger log.Logger) (events.Sink, func() error, error) {
	logSink := events.NewLogSink(logger)
	if !conf.Kafka.Enabled() {
		return logSink, func() error { return nil }, nil
	}
	kafka, err := events.NewKafkaSink(conf.Kafka.Brokers, conf.Kafka.Topic)
	if err != nil {
		return nil, nil, err
	}
	return events.MultiSink{logSink, kafka}, kafka.Close, nil
}

// node is an application opened on top of its durable store.
type node struct {
	conf   *Config
	app    *app.BaseApp
	logger log.Logger
	closer []func() error
}

// openNode loads the configuration of home and opens the application.
// The returned node must be closed.
func openNode(home string) (*node, error) {
	conf, err := loadConfig(home)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(conf.LogLevel)
	if err != nil {
		return nil, err
	}
	sink, closeSink, err := newSink(conf, logger)
	if err != nil {
		return nil, err
	}
	a, kv, err := escrowd.GenerateApp(escrowd.Options{
		Home:    conf.Home,
		Backend: conf.Backend,
		Debug:   conf.Debug,
		Logger:  logger,
		Sink:    sink,
	})
	if err != nil {
		closeSink()
		return nil, err
	}
	return &node{
		conf:   conf,
		app:    a,
		logger: logger,
		closer: []func() error{kv.Close, closeSink},
	}, nil
}

// requireInit returns an error if the node was never initialized.
func (n *node) requireInit() error {
	if n.app.GetChainID() == "" {
		return errors.Wrapf(errors.ErrState, "%s is not initialized, run init first", n.conf.Home)
	}
	return nil
}

func (n *node) Close() error {
	var err error
	for _, c := range n.closer {
		err = errors.Append(err, c())
	}
	return err
}

// submit signs the message with the key and executes it as a new block.
func (n *node) submit(key *crypto.PrivateKey, msg weave.Msg) (*txResult, error) {
	if err := n.requireInit(); err != nil {
		return nil, err
	}
	tx, err := signTx(n.app, key, msg)
	if err != nil {
		return nil, err
	}
	raw, err := tx.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal tx")
	}
	res, height, err := n.app.SubmitTx(time.Now(), raw)
	if err != nil {
		return nil, err
	}
	out := txResult{Height: height, Data: res.Data}
	for _, kv := range res.Tags {
		out.Tags = append(out.Tags, fmt.Sprintf("%s=%s", kv.Key, kv.Value))
	}
	sort.Strings(out.Tags)
	return &out, nil
}

// signTx builds a transaction holding msg, signed by key with its next
// sequence.
func signTx(a *app.BaseApp, key *crypto.PrivateKey, msg weave.Msg) (*escrowd.Tx, error) {
	seq, err := sigsNextSequence(a, key)
	if err != nil {
		return nil, err
	}
	tx := escrowd.NewTx(msg)
	if err := tx.Sign(key, a.GetChainID(), seq); err != nil {
		return nil, errors.Wrap(err, "sign")
	}
	return tx, nil
}

// sigsNextSequence returns the sequence the next signature of key must
// carry, as reported by the "/auth" query.
func sigsNextSequence(a *app.BaseApp, key *crypto.PrivateKey) (int64, error) {
	var user sigs.UserData
	switch err := app.QueryOne(a, "/auth", key.PublicKey().Address(), &user); {
	case err == nil:
		return user.Sequence, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, errors.Wrap(err, "sequence")
	}
}

type txResult struct {
	Height int64
	Data   []byte
	Tags   []string
}

func (r *txResult) print(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "height: %d\n", r.Height); err != nil {
		return err
	}
	if len(r.Data) > 0 {
		fmt.Fprintf(w, "data: %s\n", r.Data)
	}
	for _, t := range r.Tags {
		fmt.Fprintf(w, "tag: %s\n", t)
	}
	return nil
}

// readKey loads a raw ed25519 private key from given file.
func readKey(path string) (*crypto.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read private key file: %s", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: %d", len(raw))
	}
	return &crypto.PrivateKey{Ed25519: raw}, nil
}
