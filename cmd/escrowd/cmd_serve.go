package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iov-one/weave-escrow/api"
	"github.com/tendermint/tendermint/abci/server"
)

func cmdServe(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Serve the HTTP API. Every submitted transaction is executed as its own
block and committed before the response is sent.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl = flHome(fl)
		addrFl = fl.String("addr", "", "Listen address. Defaults to the configured one.")
	)
	fl.Parse(args)

	n, err := openNode(*homeFl)
	if err != nil {
		return err
	}
	defer n.Close()
	if err := n.requireInit(); err != nil {
		return err
	}
	addr := n.conf.HTTPAddr
	if *addrFl != "" {
		addr = *addrFl
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(n.app, n.logger, n.conf.Debug).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		n.logger.Info("Starting HTTP API", "addr", addr, "chain_id", n.app.GetChainID())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %s", err)
	case <-ctx.Done():
	}
	n.logger.Info("Shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func cmdABCI(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Run the ABCI socket server, for use with a tendermint node.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl = flHome(fl)
		bindFl = fl.String("bind", "", "Address the server listens on. Defaults to the configured one.")
	)
	fl.Parse(args)

	n, err := openNode(*homeFl)
	if err != nil {
		return err
	}
	defer n.Close()
	bind := n.conf.ABCIAddr
	if *bindFl != "" {
		bind = *bindFl
	}

	n.logger.Info("Starting ABCI app", "bind", bind)
	svr, err := server.NewServer(bind, "socket", n.app)
	if err != nil {
		return fmt.Errorf("cannot create listener: %s", err)
	}
	svr.SetLogger(n.logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return fmt.Errorf("cannot start abci server: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	n.logger.Info("Stopping ABCI app")
	return svr.Stop()
}
