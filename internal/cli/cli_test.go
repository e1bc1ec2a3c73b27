package cli

//
// cli_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/assert"
	"gitlab.com/kabes/go-relay/internal/config"
	"gitlab.com/kabes/go-relay/internal/model"
)

func runWithFlags(t *testing.T, flags []cli.Flag, args []string, action cli.ActionFunc) {
	t.Helper()

	cmd := &cli.Command{Name: "test", Flags: flags, Action: action}
	assert.NoErr(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
}

func TestStringOption(t *testing.T) {
	flags := func() []cli.Flag {
		return []cli.Flag{&cli.StringFlag{Name: "server", Value: "http://default"}}
	}

	var got string

	action := func(_ context.Context, c *cli.Command) error {
		got = stringOption(c, "server", "http://file")

		return nil
	}

	runWithFlags(t, flags(), nil, action)
	assert.Equal(t, got, "http://file")

	runWithFlags(t, flags(), []string{"--server", "http://flag"}, action)
	assert.Equal(t, got, "http://flag")

	runWithFlags(t, flags(), nil, func(_ context.Context, c *cli.Command) error {
		got = stringOption(c, "server", "")

		return nil
	})
	assert.Equal(t, got, "http://default")
}

func TestBuildConfsFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := `server_url = "https://relay.example.com/"
database = "` + filepath.Join(dir, "data", "relay.sqlite") + `"
timeout = "5s"

[control]
address = "127.0.0.1:9999"

[player]
rate = 1.25
`
	assert.NoErr(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	flags := []cli.Flag{
		&cli.StringFlag{Name: "config"},
		&cli.StringFlag{Name: "server", Value: config.DefaultServerURL},
		&cli.DurationFlag{Name: "timeout", Value: config.DefaultTimeout},
		&cli.StringFlag{Name: "database", Value: "default.sqlite"},
	}

	runWithFlags(t, flags, []string{"--config", cfgPath}, func(_ context.Context, c *cli.Command) error {
		filecfg, err := loadConfigFile(c)
		assert.NoErr(t, err)
		assert.Equal(t, filecfg.Control.Address, "127.0.0.1:9999")
		assert.Equal(t, filecfg.Player.Rate, 1.25)

		clientConf, storeConf, err := buildConfs(c, filecfg)
		assert.NoErr(t, err)
		assert.Equal(t, clientConf.ServerURL, "https://relay.example.com")
		assert.Equal(t, clientConf.Timeout, 5*time.Second)
		assert.Equal(t, storeConf.Path, filepath.Join(dir, "data", "relay.sqlite"))

		assert.NoErr(t, ensureDatabaseDir(storeConf.Path))

		_, err = os.Stat(filepath.Join(dir, "data"))
		assert.NoErr(t, err)

		return nil
	})
}

func TestLoadConfigFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.toml")

	// default (not set) config file may not exist
	runWithFlags(t, []cli.Flag{&cli.StringFlag{Name: "config", Value: missing}}, nil,
		func(_ context.Context, c *cli.Command) error {
			cfg, err := loadConfigFile(c)
			assert.NoErr(t, err)
			assert.Equal(t, cfg.ServerURL, "")

			return nil
		})

	runWithFlags(t, []cli.Flag{&cli.StringFlag{Name: "config"}}, []string{"--config", missing},
		func(_ context.Context, c *cli.Command) error {
			_, err := loadConfigFile(c)
			assert.ErrSpec(t, err, aerr.ErrInvalidConf)

			return nil
		})
}

func TestBuildConfsInvalidTimeout(t *testing.T) {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "server", Value: config.DefaultServerURL},
		&cli.DurationFlag{Name: "timeout", Value: config.DefaultTimeout},
		&cli.StringFlag{Name: "database", Value: ":memory:"},
	}

	runWithFlags(t, flags, nil, func(_ context.Context, c *cli.Command) error {
		_, _, err := buildConfs(c, &config.FileConf{Timeout: "soon"})
		assert.ErrSpec(t, err, aerr.ErrInvalidConf)

		return nil
	})
}

func TestPreferencesPatchFromFlags(t *testing.T) {
	cmd := newSetPreferencesCmd()
	cmd.Action = func(_ context.Context, c *cli.Command) error {
		patch := preferencesPatchFromFlags(c)
		assert.True(t, patch.DefaultPlaybackSpeed != nil)
		assert.Equal(t, *patch.DefaultPlaybackSpeed, 1.5)
		assert.True(t, patch.DefaultSkipForward == nil)
		assert.Equal(t, *patch.DefaultSkipBackward, 10)
		assert.Equal(t, *patch.Theme, model.ThemeDark)

		return nil
	}

	assert.NoErr(t, cmd.Run(context.Background(),
		[]string{"set", "--speed", "1.5", "--skip-backward", "10", "--theme", "dark"}))
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, formatSeconds(0), "00:00")
	assert.Equal(t, formatSeconds(-5), "00:00")
	assert.Equal(t, formatSeconds(65.9), "01:05")
	assert.Equal(t, formatSeconds(3725), "1:02:05")
}

func TestRenderTable(t *testing.T) {
	res := renderTable([]string{"ID", "Title"}, [][]string{{"1", "First"}, {"22"}}, alignRight)

	assert.True(t, strings.Contains(res, "ID"))
	assert.True(t, strings.Contains(res, "First"))
	assert.True(t, strings.Contains(res, "22"))
	assert.Equal(t, renderTable(nil, nil), "")
}

func TestRenderProgress(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	progress := map[string]model.EpisodeProgress{
		"1": model.NewEpisodeProgress(50, 100, now.Add(-time.Hour)),
		"2": model.NewCompletedProgress(100, now),
		"3": model.NewEpisodeProgress(1, 100, now.Add(-2*time.Hour)),
	}

	res := renderProgress(progress, "")
	assert.True(t, strings.Index(res, "completed") < strings.Index(res, "in_progress"))
	assert.True(t, strings.Index(res, "in_progress") < strings.Index(res, "new"))

	res = renderProgress(progress, model.StatusCompleted)
	assert.True(t, strings.Contains(res, "completed"))
	assert.False(t, strings.Contains(res, "in_progress"))
}

func TestNewProgress(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	p, err := newProgress(50, 100, false, now)
	assert.NoErr(t, err)
	assert.Equal(t, p.Status, model.StatusInProgress)

	p, err = newProgress(0, 100, true, now)
	assert.NoErr(t, err)
	assert.True(t, p.Completed())
	assert.Equal(t, p.PositionSeconds, 100.0)

	_, err = newProgress(150, 100, false, now)
	assert.ErrSpec(t, err, aerr.ErrValidation)

	_, err = newProgress(10, -1, false, now)
	assert.ErrSpec(t, err, aerr.ErrValidation)
}

func TestEpisodeIDsArgs(t *testing.T) {
	ids, err := episodeIDsArgs([]string{"1", "22"})
	assert.NoErr(t, err)
	assert.Equal(t, ids, []string{"1", "22"})

	_, err = episodeIDsArgs(nil)
	assert.Err(t, err)

	_, err = episodeIDsArgs([]string{"1", "x2"})
	assert.Err(t, err)
}

func TestLockFilePath(t *testing.T) {
	assert.Equal(t, lockFilePath("/tmp/relay.sqlite"), "/tmp/relay.sqlite.lock")
	assert.Equal(t, lockFilePath(":memory:"), "")
}

func TestLogfmtField(t *testing.T) {
	assert.Equal(t, logfmtField("msg", "<nil>", true)("hello world"), `msg="hello world"`)
	assert.Equal(t, logfmtField("msg", "<nil>", true)(nil), "msg=<nil>")
	assert.Equal(t, logfmtField("level", "", false)("info"), "level=info")
	assert.Equal(t, logfmtField("level", "", false)(nil), "")
	assert.Equal(t, logfmtField("caller", "", false)("a b.go:1"), `caller="a b.go:1"`)
	assert.Equal(t, logfmtValue("x"), `"x"`)
}
