package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/x/cash"
)

func cmdSend(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Transfer coins from the signer to another address.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl = flHome(fl)
		keyFl  = flKey(fl)
		dstFl  = flAddress(fl, "dst", "Destination address.")
		memoFl = fl.String("memo", "", "A short message attached to the transfer.")
		amount coin.Coin
	)
	fl.Var(&amount, "amount", "Amount to transfer, for example \"5 ETH\".")
	fl.Parse(args)

	key, err := readKey(*keyFl)
	if err != nil {
		return err
	}
	msg := &cash.SendMsg{
		Source:      key.PublicKey().Address(),
		Destination: *dstFl,
		Amount:      &amount,
		Memo:        *memoFl,
	}
	return runTx(output, *homeFl, *keyFl, msg)
}
