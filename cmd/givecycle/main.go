package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"givecycle/internal/platform/config"
)

func main() {
	app := &cli.App{
		Name:  "givecycle",
		Usage: "Matching and cycle-lifecycle engine for the giving network",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-prefix",
				Aliases: []string{"p"},
				Usage:   "Environment variable prefix",
				Value:   config.DefaultPrefix,
			},
		},
		Commands: []*cli.Command{
			serveCommand,
			sweepCommand,
			migrateCommand,
			tokenCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "givecycle: %v\n", err)
		os.Exit(1)
	}
}
