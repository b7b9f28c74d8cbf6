package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iov-one/weave-escrow/app"
	escrowd "github.com/iov-one/weave-escrow/cmd/escrowd/app"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
)

func cmdInit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Initialize a new escrow node.

Write the configuration and the genesis file into the home directory and
load the genesis into a fresh store. The owner receives the given coins.
An existing configuration file is reused.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl    = flHome(fl)
		chainFl   = fl.String("chain-id", "", "Chain ID. Defaults to the configured one.")
		backendFl = fl.String("backend", "", "Store backend, iavl or pebble. Defaults to the configured one.")
		ownerFl   = flAddress(fl, "owner", "Address receiving the initial coins. Defaults to the address of -key.")
		keyFl     = flKey(fl)
		coinsFl   = fl.String("coins", "1000000 ETH", "Comma separated list of coins the owner receives.")
	)
	fl.Parse(args)

	if err := os.MkdirAll(*homeFl, 0755); err != nil {
		return fmt.Errorf("cannot create home directory: %s", err)
	}
	conf, err := loadConfig(*homeFl)
	if err != nil {
		return err
	}
	if *chainFl != "" {
		conf.ChainID = *chainFl
	}
	if *backendFl != "" {
		conf.Backend = *backendFl
	}
	if err := conf.Validate(); err != nil {
		return err
	}
	if err := conf.save(); err != nil && !errors.ErrDuplicate.Is(err) {
		return err
	}

	owner := *ownerFl
	if len(owner) == 0 {
		key, err := readKey(*keyFl)
		if err != nil {
			return fmt.Errorf("no -owner given: %s", err)
		}
		owner = key.PublicKey().Address()
	}
	coins, err := parseCoins(*coinsFl)
	if err != nil {
		return err
	}
	state, err := escrowd.GenInitOptions(owner, coins)
	if err != nil {
		return err
	}
	g := &app.Genesis{ChainID: conf.ChainID, AppState: state}
	if err := g.Save(conf.genesisPath()); err != nil {
		return err
	}

	n, err := openNode(*homeFl)
	if err != nil {
		return err
	}
	defer n.Close()
	if err := n.app.InitFromGenesis(g); err != nil {
		return err
	}
	_, err = fmt.Fprintf(output, "initialized chain %s in %s\n", conf.ChainID, conf.Home)
	return err
}

func parseCoins(raw string) ([]coin.Coin, error) {
	var coins []coin.Coin
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		c, err := coin.ParseHumanFormat(s)
		if err != nil {
			return nil, errors.Wrapf(err, "coin %q", s)
		}
		coins = append(coins, c)
	}
	return coins, nil
}
