package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/simklx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger, Input: os.Stdin})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		msg, code := exitStatus(err)
		if code == 0 {
			logger.Warn(msg)
		} else {
			logger.Error(msg, "error", err)
		}
		stop()
		os.Exit(code)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "simklx",
		Usage:   "Import Letterboxd history into Simkl and reconcile the result",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}

// exitStatus maps a command error to a log message and process exit code.
func exitStatus(err error) (string, int) {
	switch {
	case errors.Is(err, shared.ErrNotImplemented):
		return "not implemented", 0
	case errors.Is(err, context.Canceled):
		return "interrupted", 130
	case errors.Is(err, shared.ErrAuthDeclined):
		return "authorization was not confirmed; nothing was submitted", 1
	case errors.Is(err, shared.ErrAuthFailed):
		return "could not authenticate with Simkl; nothing was submitted", 1
	case errors.Is(err, shared.ErrMissingCredentials):
		return "credentials missing; run 'simklx setup config' and fill in config.toml", 2
	case errors.Is(err, shared.ErrInvalidConfig), errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidFlag):
		return "invalid usage", 2
	default:
		return "application error", 1
	}
}
