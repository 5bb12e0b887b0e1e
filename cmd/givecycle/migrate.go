package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"givecycle/internal/matching/store/match"
	"givecycle/internal/platform/logger"
)

var migrateCommand = &cli.Command{
	Name:   "migrate",
	Usage:  "Create the matches table and its indexes",
	Action: migrate,
}

func migrate(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	a, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if err := match.Migrate(ctx, a.db); err != nil {
		return err
	}
	log.InfoContext(ctx, "matches schema is up to date")
	return nil
}
