// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the profile cache database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the platform session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in via an identity provider in a browser popup",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   "Identity provider to authorize with",
						Value:   "google",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Drop the local session",
				Action: r.AuthLogout,
			},
			{
				Name:  "whoami",
				Usage: "Show the signed-in account, falling back to the offline cache",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthWhoami,
			},
			{
				Name:   "token",
				Usage:  "Print the current access token",
				Action: r.AuthToken,
			},
		},
	}
}

// chargeCommand handles checkout operations
func chargeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "charge",
		Usage: "Run a checkout flow in a browser popup",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "amount",
				Aliases:  []string{"a"},
				Usage:    "Charge amount in minor currency units",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "currency",
				Usage: "ISO currency code",
				Value: "USD",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Print progress lines instead of the interactive display",
			},
		},
		Action: r.Charge,
	}
}
