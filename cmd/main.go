package main

import (
	"log"
	"os"

	"github.com/brojonat/chatagent/mock_server"
	"github.com/urfave/cli/v2"
)

func main() {

	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:    "run-test-server",
				Aliases: []string{"ts"},
				Usage:   "run an echo chat server for local testing",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Value: mock_server.DefaultAddr,
						Usage: "address to listen on",
					},
					&cli.IntFlag{
						Name:  "log-level",
						Value: 0,
						Usage: "slog level (-4 debug, 0 info, 4 warn, 8 error)",
					},
				},
				Action: runTestServer,
			},
		}}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
