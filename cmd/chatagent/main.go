package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/brojonat/chatagent/agent"
	"github.com/brojonat/chatagent/chatclient"
	"github.com/brojonat/chatagent/config"
	"github.com/brojonat/chatagent/console"
	"github.com/brojonat/chatagent/logging"
	"github.com/urfave/cli/v2"
)

const defaultName = "ChatAgent_0"

func main() {
	app := &cli.App{
		Name:  "chatagent",
		Usage: "Interactive chat client. Type a message and press enter to send it.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "multiline",
				Value: 0,
				Usage: "Use multi-line input mode with backslash continuation (1 = enabled, 0 = disabled).",
			},
			&cli.StringFlag{
				Name:  "config",
				Value: config.DefaultPath,
				Usage: "Path to the client config file (JSON).",
			},
		},
		Action: func(ctx *cli.Context) error {
			return run_chat(ctx)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run_chat(ctx *cli.Context) error {
	mode, err := agent.ParseMode(ctx.Int("multiline"))
	if err != nil {
		return err
	}
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

	arb := console.New(os.Stdin, os.Stdout, console.WithFatalHandler(func(err error) {
		l.Error("console failure", "error", err.Error())
		os.Exit(1)
	}))
	chat := agent.NewChat(arb, mode)

	c := chatclient.NewClient(name, logging.LogFunc(l),
		chatclient.WithReconnection(cfg.Reconnection.RetryDelay(), cfg.Reconnection.MaxRetries))
	if err := chat.Register(c, ""); err != nil {
		return fmt.Errorf("could not register handlers: %w", err)
	}

	sctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info("starting chat agent", "addr", cfg.Address(), "mode", mode.String())
	if err := c.Run(sctx, cfg.Address()); err != nil {
		return err
	}
	l.Info("chat agent stopped")
	return nil
}
