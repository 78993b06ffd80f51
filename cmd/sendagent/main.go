package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/chatagent/agent"
	"github.com/brojonat/chatagent/chatclient"
	"github.com/brojonat/chatagent/config"
	"github.com/brojonat/chatagent/logging"
	"github.com/urfave/cli/v2"
)

const defaultName = "SendAgent_0"

func main() {
	app := &cli.App{
		Name:  "sendagent",
		Usage: "Non-interactive client that greets the server once a second.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: config.DefaultPath,
				Usage: "Path to the client config file (JSON).",
			},
		},
		Action: func(ctx *cli.Context) error {
			return run_sender(ctx)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run_sender(ctx *cli.Context) error {
	cfg, err := config.Resolve(ctx.String("config"), ctx.IsSet("config"))
	if err != nil {
		return err
	}
	w, closeLog, err := logging.Output(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	l := logging.NewLogger(cfg.LogLevel, w)

	name := cfg.Name
	if name == "" {
		name = defaultName
	}

	c := chatclient.NewClient(name, logging.LogFunc(l),
		chatclient.WithReconnection(cfg.Reconnection.RetryDelay(), cfg.Reconnection.MaxRetries))
	if err := agent.NewSender(time.Second, agent.Greeting).Register(c, ""); err != nil {
		return fmt.Errorf("could not register handlers: %w", err)
	}

	sctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info("starting send agent", "addr", cfg.Address())
	return c.Run(sctx, cfg.Address())
}
