package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/inkpot-dev/inkwell/internal/api"
	"github.com/inkpot-dev/inkwell/internal/browser"
	"github.com/inkpot-dev/inkwell/internal/shared"
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

	client := api.NewClient(api.Opts{
		AuthURL: config.Platform.AuthURL,
		APIURL:  config.Platform.APIURL,
		Logger:  logger,
	})

	env := browser.NewNative(config.Server.Host, config.Server.Port, logger, os.Stdout)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		env.Stop(ctx)
	}()

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Client:   client,
		Env:      env,
		EnvStart: env.Start,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "inkwell",
		Usage:    "Sign in to and pay on the Inkwell platform from your terminal",
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
