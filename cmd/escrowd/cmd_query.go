package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/api"
	"github.com/iov-one/weave-escrow/app"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/escrow"
)

// queryNode opens the node of home, runs fn and closes the node.
func queryNode(home string, fn func(*node) error) error {
	n, err := openNode(home)
	if err != nil {
		return err
	}
	defer n.Close()
	if err := n.requireInit(); err != nil {
		return err
	}
	return fn(n)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdShow(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the state of an escrow.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl = flHome(fl)
		idFl   = fl.String("id", "", "Escrow ID.")
	)
	fl.Parse(args)

	return queryNode(*homeFl, func(n *node) error {
		var e escrow.Escrow
		if err := app.QueryOne(n.app, "/escrows", []byte(*idFl), &e); err != nil {
			return err
		}
		return printJSON(output, api.NewEscrowView(&e))
	})
}

func cmdList(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
List all escrows an address takes part in with the given role.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl = flHome(fl)
		roleFl = fl.String("role", escrow.RoleClient, "One of client, freelancer or arbiter.")
		addrFl = flAddress(fl, "address", "Address of the party.")
	)
	fl.Parse(args)

	switch *roleFl {
	case escrow.RoleClient, escrow.RoleFreelancer, escrow.RoleArbiter:
	default:
		return errors.Wrapf(errors.ErrInput, "unknown role %q", *roleFl)
	}
	if err := addrFl.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}

	return queryNode(*homeFl, func(n *node) error {
		models, err := app.QueryModels(n.app, "/escrows/"+*roleFl, *addrFl)
		if err != nil {
			return err
		}
		views := make([]api.EscrowView, 0, len(models))
		for _, m := range models {
			var e escrow.Escrow
			if err := e.Unmarshal(m.Value); err != nil {
				return err
			}
			views = append(views, api.NewEscrowView(&e))
		}
		return printJSON(output, views)
	})
}

func cmdCount(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the number of escrows ever created.
`)
		fl.PrintDefaults()
	}
	homeFl := flHome(fl)
	fl.Parse(args)

	return queryNode(*homeFl, func(n *node) error {
		models, err := app.QueryModels(n.app, "/escrows/count", nil)
		if err != nil {
			return err
		}
		if len(models) != 1 {
			return errors.Wrap(errors.ErrState, "count query")
		}
		count, err := escrow.DecodeCount(models[0].Value)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(output, count)
		return err
	})
}

func cmdBalance(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the coins held by an address. Without -address the address of the
private key is used.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl = flHome(fl)
		keyFl  = flKey(fl)
		addrFl = flAddress(fl, "address", "Address of the wallet.")
	)
	fl.Parse(args)

	addr := *addrFl
	if len(addr) == 0 {
		key, err := readKey(*keyFl)
		if err != nil {
			return err
		}
		addr = key.PublicKey().Address()
	}

	return queryNode(*homeFl, func(n *node) error {
		coins, err := balance(n.app, addr)
		if err != nil {
			return err
		}
		if len(coins) == 0 {
			_, err = fmt.Fprintln(output, "no coins")
			return err
		}
		for _, c := range coins {
			if _, err := fmt.Fprintln(output, c); err != nil {
				return err
			}
		}
		return nil
	})
}

func balance(q app.Querier, addr weave.Address) (coin.Coins, error) {
	var w cash.Wallet
	switch err := app.QueryOne(q, "/wallets", addr, &w); {
	case err == nil:
		return w.Coins, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}
