package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"givecycle/internal/matching/sweeper"
	"givecycle/internal/platform/logger"
)

var sweepCommand = &cli.Command{
	Name:   "sweep",
	Usage:  "Run one expiration sweep and exit",
	Action: sweepOnce,
}

// sweepOnce honours the cluster lease, so it is safe to run from cron next
// to serving instances.
func sweepOnce(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	emitCtx, stopEmitter := context.WithCancel(ctx)
	emitterDone := make(chan struct{})
	go func() {
		defer close(emitterDone)
		_ = a.emitter.Run(emitCtx)
	}()

	report, err := a.sweeper.Trigger(ctx)
	stopEmitter()
	<-emitterDone

	switch {
	case errors.Is(err, sweeper.ErrLeaseHeld):
		log.InfoContext(ctx, "another instance is sweeping, nothing to do")
		return nil
	case err != nil:
		return err
	}
	log.InfoContext(ctx, "sweep finished",
		"expired", report.Expired,
		"follow_up_failures", report.FollowUpFailures,
		"duration", report.Duration,
	)
	return nil
}
