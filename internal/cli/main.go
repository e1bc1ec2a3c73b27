package cli

//
// main.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/config"
)

//nolint:forbidigo
func Main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "print-version",
		Aliases: []string{"V"},
		Usage:   "Print version.",
	}

	cli := newApp()

	if err := cli.Run(context.Background(), os.Args); err != nil {
		if h := aerr.GetUserMessage(err); h != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", h)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		}

		if cli.String("log.level") == "debug" {
			fmt.Fprintf(os.Stderr, "Error: %#+v\n", err)
		}

		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "go-relay",
		Usage:   "headless relay podcast client",
		Version: config.VersionString,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "config",
				Value:     config.DefaultConfigPath(),
				Usage:     "Configuration file (toml); missing default file is ignored",
				Aliases:   []string{"c"},
				Sources:   cli.EnvVars("RELAY_CONFIG"),
				Config:    cli.StringConfig{TrimSpace: true},
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:    "server",
				Value:   config.DefaultServerURL,
				Usage:   "Relay server url",
				Aliases: []string{"s"},
				Sources: cli.EnvVars("RELAY_SERVER"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   config.DefaultTimeout,
				Usage:   "Timeout of requests to relay server",
				Sources: cli.EnvVars("RELAY_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:      "database",
				Value:     config.DefaultDatabasePath(),
				Usage:     "Local database file",
				Aliases:   []string{"D"},
				Sources:   cli.EnvVars("RELAY_DB"),
				Validator: dbPathValidator,
				Config:    cli.StringConfig{TrimSpace: true},
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:    "log.level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("RELAY_LOGLEVEL"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.StringFlag{
				Name:    "log.format",
				Value:   "console",
				Usage:   "Log format (console, logfmt, json, journald, syslog)",
				Sources: cli.EnvVars("RELAY_LOGFORMAT"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.StringFlag{Name: "debug", Usage: "Debug flags", Sources: cli.EnvVars("RELAY_DEBUG")},
		},
		Commands: []*cli.Command{
			accountSubCmd(),
			newLoginCmd(),
			newLogoutCmd(),
			newStatusCmd(),
			newSyncCmd(),
			subscriptionsSubCmd(),
			queueSubCmd(),
			progressSubCmd(),
			preferencesSubCmd(),
			newSearchCmd(),
			newEpisodesCmd(),
			newPlayCmd(),
		},
	}
}

func accountSubCmd() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "manage relay account",
		Commands: []*cli.Command{
			newCreateAccountCmd(),
			newGenerateSecretCmd(),
			newVerifyAccountCmd(),
			newDeleteAccountCmd(),
		},
	}
}

func subscriptionsSubCmd() *cli.Command {
	return &cli.Command{
		Name:    "subs",
		Usage:   "manage subscriptions",
		Aliases: []string{"subscriptions"},
		Commands: []*cli.Command{
			newListSubscriptionsCmd(),
			newAddSubscriptionCmd(),
			newRemoveSubscriptionCmd(),
		},
	}
}

func queueSubCmd() *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "manage play queue",
		Commands: []*cli.Command{
			newListQueueCmd(),
			newAddToQueueCmd(),
			newRemoveFromQueueCmd(),
			newReorderQueueCmd(),
		},
	}
}

func progressSubCmd() *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "show and update episodes progress",
		Commands: []*cli.Command{
			newListProgressCmd(),
			newSetProgressCmd(),
		},
	}
}

func preferencesSubCmd() *cli.Command {
	return &cli.Command{
		Name:    "prefs",
		Usage:   "show and update preferences",
		Aliases: []string{"preferences"},
		Commands: []*cli.Command{
			newShowPreferencesCmd(),
			newSetPreferencesCmd(),
		},
	}
}

//---------------------------------------------------------------------

func dbPathValidator(path string) error {
	if path == "" {
		return aerr.New("database path cannot be empty")
	}

	return nil
}
