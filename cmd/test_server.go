package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/brojonat/chatagent/logging"
	"github.com/brojonat/chatagent/mock_server"
	"github.com/urfave/cli/v2"
)

func runTestServer(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := logging.NewLogger(cCtx.Int("log-level"), os.Stderr)
	return mock_server.ListenAndServe(ctx, l, cCtx.String("addr"))
}
