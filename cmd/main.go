package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/dailycast/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if path := os.Getenv("DAILYCAST_CONFIG"); path != "" {
		configPath = path
	}

	runner := NewRunner(RunnerOpts{ConfigPath: configPath, Logger: logger})
	defer runner.Close()

	app := &cli.Command{
		Name:     "dailycast",
		Usage:    "Your personalized daily AI podcast",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrAuthRejected):
			logger.Error("session expired, run 'dailycast auth login' to continue")
		case errors.Is(err, shared.ErrUnauthenticated):
			logger.Error(err.Error())
		default:
			logger.Errorf("application error: %v", err)
		}
		runner.Close()
		os.Exit(1)
	}
}
