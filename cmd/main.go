package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/spotlite/internal/auth"
	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var exchanger *auth.Exchanger
	if config.Credentials.Spotify.ClientID != "" {
		if ex, err := auth.NewExchanger(config.Credentials.Spotify, nil, logger); err == nil {
			exchanger = ex
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: "config.toml",
		Exchanger:  exchanger,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "spotlite",
		Usage:    "Browse your Spotify library from a local web app or terminal",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
