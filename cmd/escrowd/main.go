/*
Command escrowd runs and operates an escrow node.

Every command reads the configuration from the home directory (see
-home and ESCROWD_HOME). Commands changing state sign a transaction with
a local private key and execute it as a new block on top of the node
store, so they must not run while the same home is served.

	$ escrowd keygen -key client.key
	$ escrowd init -key client.key
	$ escrowd create -key client.key -id job-1 \
	    -freelancer <addr> -arbiter <addr> -amount "100 ETH"
	$ escrowd fund -key client.key -id job-1
	$ escrowd show -id job-1
*/
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/iov-one/weave-escrow"
)

// commands is a register of all availables commands that can be executed by
// this program. The name is used to match with the first argument given.
//
// A command function is given stdin, stdout and the command line arguments
// without the program and the command name. It parses the arguments with
// the flag package and reads and writes only to provided input and output.
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"abci":    cmdABCI,
	"balance": cmdBalance,
	"count":   cmdCount,
	"create":  cmdCreate,
	"deliver": cmdDeliver,
	"dispute": cmdDispute,
	"fund":    cmdFund,
	"init":    cmdInit,
	"keyaddr": cmdKeyaddr,
	"keygen":  cmdKeygen,
	"list":    cmdList,
	"release": cmdRelease,
	"resolve": cmdResolve,
	"send":    cmdSend,
	"serve":   cmdServe,
	"show":    cmdShow,
	"version": cmdVersion,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s runs and operates an escrow node.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> -help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}

	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	_, err := fmt.Fprintln(out, weave.Version())
	return err
}
