package cli

//
// common.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/common"
	"gitlab.com/kabes/go-relay/internal/config"
	"gitlab.com/kabes/go-relay/internal/localstore"
	"gitlab.com/kabes/go-relay/internal/relayapi"
	"gitlab.com/kabes/go-relay/internal/syncstore"
)

type commandFunc func(ctx context.Context, clicmd *cli.Command, i do.Injector) error

// wrap prepare logger, configuration and local database for command.
func wrap(cmdfunc commandFunc) cli.ActionFunc {
	return func(ctx context.Context, clicmd *cli.Command) error {
		filecfg, err := loadConfigFile(clicmd)
		if err != nil {
			return err
		}

		level := stringOption(clicmd, "log.level", filecfg.LogLevel)
		if err := initializeLogger(level, stringOption(clicmd, "log.format", filecfg.LogFormat)); err != nil {
			return err
		}

		ctx = log.Logger.WithContext(ctx)

		clientConf, storeConf, err := buildConfs(clicmd, filecfg)
		if err != nil {
			return err
		}

		log.Ctx(ctx).Debug().Object("client", &clientConf).Str("database", storeConf.Path).
			Msg("configuration loaded")

		if err := ensureDatabaseDir(storeConf.Path); err != nil {
			return err
		}

		injector := createInjector(ctx)
		defer shutdownInjector(ctx, injector)

		do.ProvideValue(injector, filecfg)
		do.ProvideValue(injector, &clientConf)
		do.ProvideValue(injector, &storeConf)

		db := do.MustInvoke[*localstore.Database](injector)
		if err := db.Open(ctx, storeConf.Path); err != nil {
			return aerr.Wrapf(err, "open local database failed")
		}

		return cmdfunc(ctx, clicmd, injector)
	}
}

// wrapAuth restore saved session before running command; command fail when
// user is not logged in.
func wrapAuth(cmdfunc commandFunc) cli.ActionFunc {
	return wrap(func(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
		store := do.MustInvoke[*syncstore.Store](injector)
		if err := store.Resume(ctx); err != nil {
			return aerr.Wrapf(err, "restore session failed")
		}

		if !store.Authenticated() {
			return common.ErrNotAuthenticated
		}

		return cmdfunc(ctx, clicmd, injector)
	})
}

func createInjector(ctx context.Context) *do.RootScope {
	injector := do.New(
		localstore.Package,
		relayapi.Package,
		syncstore.Package,
	)

	logger := log.Ctx(ctx)
	logger.Debug().Msgf("Available services: %v", injector.ListProvidedServices())

	return injector
}

func shutdownInjector(ctx context.Context, injector *do.RootScope) {
	logger := log.Ctx(ctx)

	if report := injector.ShutdownWithContext(ctx); report != nil {
		logger.Debug().Msgf("Injector: shutdown: %v", report)
	}
}

// stringOption return value of flag when it is set by user or environment;
// otherwise value from config file (when not empty) or flag default.
func stringOption(clicmd *cli.Command, name, fileValue string) string {
	if clicmd.IsSet(name) || fileValue == "" {
		return clicmd.String(name)
	}

	return fileValue
}

func loadConfigFile(clicmd *cli.Command) (*config.FileConf, error) {
	path := clicmd.String("config")
	if path == "" {
		return &config.FileConf{}, nil
	}

	// only explicitly given config file must exist
	cfg, err := config.LoadFile(path, !clicmd.IsSet("config"))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return cfg, nil
}

func buildConfs(clicmd *cli.Command, filecfg *config.FileConf) (config.ClientConf, config.StoreConf, error) {
	timeout := clicmd.Duration("timeout")

	if !clicmd.IsSet("timeout") && filecfg.Timeout != "" {
		t, err := time.ParseDuration(filecfg.Timeout)
		if err != nil {
			return config.ClientConf{}, config.StoreConf{},
				aerr.ApplyFor(aerr.ErrInvalidConf, err, "invalid timeout in config file")
		}

		timeout = t
	}

	clientConf := config.NewClientConf(stringOption(clicmd, "server", filecfg.ServerURL), timeout)
	if err := clientConf.Validate(); err != nil {
		return config.ClientConf{}, config.StoreConf{}, aerr.Wrapf(err, "invalid client configuration")
	}

	storeConf := config.NewStoreConf(stringOption(clicmd, "database", filecfg.Database))
	if err := storeConf.Validate(); err != nil {
		return config.ClientConf{}, config.StoreConf{}, aerr.Wrapf(err, "invalid database configuration")
	}

	return clientConf, storeConf, nil
}

func ensureDatabaseDir(path string) error {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil { //nolint:mnd
		return aerr.ApplyFor(aerr.ErrInvalidConf, err, "can't create database directory")
	}

	return nil
}

//---------------------------------------------------------------------

type columnAlign int

const (
	alignLeft columnAlign = iota
	alignRight
)

// renderTable format rows as table; missing cells are left empty.
func renderTable(headers []string, rows [][]string, aligns ...columnAlign) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}

	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}

		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)

	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}

		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}

	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// formatSeconds format seconds as [h:]mm:ss.
func formatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	d := time.Duration(seconds) * time.Second
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%02d:%02d", m, s)
}
