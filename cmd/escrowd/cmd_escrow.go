package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/x/escrow"
)

// runTx signs msg with the key from keyPath and executes it on the node
// of home.
func runTx(output io.Writer, home, keyPath string, msg weave.Msg) error {
	key, err := readKey(keyPath)
	if err != nil {
		return err
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	n, err := openNode(home)
	if err != nil {
		return err
	}
	defer n.Close()

	res, err := n.submit(key, msg)
	if err != nil {
		return err
	}
	return res.print(output)
}

func cmdCreate(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Create a new escrow. The signer becomes the client.

A random ID is generated when none is given.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl       = flHome(fl)
		keyFl        = flKey(fl)
		idFl         = fl.String("id", "", "Escrow ID. A random one is generated if empty.")
		freelancerFl = flAddress(fl, "freelancer", "Address of the freelancer.")
		arbiterFl    = flAddress(fl, "arbiter", "Address of the arbiter.")
		amount       coin.Coin
	)
	fl.Var(&amount, "amount", "Amount held by the escrow, for example \"100 ETH\".")
	fl.Parse(args)

	key, err := readKey(*keyFl)
	if err != nil {
		return err
	}
	id := *idFl
	if id == "" {
		id = uuid.NewString()
	}
	msg := &escrow.CreateMsg{
		EscrowID:   id,
		Client:     key.PublicKey().Address(),
		Freelancer: *freelancerFl,
		Arbiter:    *arbiterFl,
		Amount:     &amount,
	}
	return runTx(output, *homeFl, *keyFl, msg)
}

func cmdFund(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Fund an escrow. The signer must be its client.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl = flHome(fl)
		keyFl  = flKey(fl)
		idFl   = fl.String("id", "", "Escrow ID.")
	)
	fl.Parse(args)
	return runTx(output, *homeFl, *keyFl, &escrow.FundMsg{EscrowID: *idFl})
}

func cmdDeliver(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Mark the work of a funded escrow as delivered. The signer must be its
freelancer.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl = flHome(fl)
		keyFl  = flKey(fl)
		idFl   = fl.String("id", "", "Escrow ID.")
		noteFl = fl.String("note", "", "Optional delivery note.")
	)
	fl.Parse(args)
	return runTx(output, *homeFl, *keyFl, &escrow.DeliverMsg{EscrowID: *idFl, Note: *noteFl})
}

func cmdRelease(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Release the funds of a delivered escrow to the freelancer. The signer must
be its client.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl = flHome(fl)
		keyFl  = flKey(fl)
		idFl   = fl.String("id", "", "Escrow ID.")
	)
	fl.Parse(args)
	return runTx(output, *homeFl, *keyFl, &escrow.ReleaseMsg{EscrowID: *idFl})
}

func cmdDispute(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Hand a funded escrow over to its arbiter. The signer must be the client
or the freelancer.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl   = flHome(fl)
		keyFl    = flKey(fl)
		idFl     = fl.String("id", "", "Escrow ID.")
		reasonFl = fl.String("reason", "", "Optional reason, between 10 and 128 characters.")
	)
	fl.Parse(args)
	return runTx(output, *homeFl, *keyFl, &escrow.DisputeMsg{EscrowID: *idFl, Reason: *reasonFl})
}

func cmdResolve(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Settle a disputed escrow. The signer must be its arbiter.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl = flHome(fl)
		keyFl  = flKey(fl)
		idFl   = fl.String("id", "", "Escrow ID.")
		payFl  = fl.Bool("pay-freelancer", false, "Pay the freelancer instead of refunding the client.")
	)
	fl.Parse(args)
	return runTx(output, *homeFl, *keyFl, &escrow.ResolveMsg{EscrowID: *idFl, PayFreelancer: *payFl})
}
