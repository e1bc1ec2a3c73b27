package cli

//
// preferences.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/model"
	"gitlab.com/kabes/go-relay/internal/syncstore"
)

func newShowPreferencesCmd() *cli.Command {
	return &cli.Command{
		Name:   "show",
		Usage:  "show preferences",
		Action: wrapAuth(showPreferencesCmd),
	}
}

func showPreferencesCmd(_ context.Context, _ *cli.Command, injector do.Injector) error {
	store := do.MustInvoke[*syncstore.Store](injector)
	prefs := store.Data().Preferences

	//nolint:forbidigo
	fmt.Printf("Playback speed: %0.2g\nSkip forward:   %ds\nSkip backward:  %ds\nTheme:          %s\n",
		prefs.DefaultPlaybackSpeed, prefs.DefaultSkipForward, prefs.DefaultSkipBackward, prefs.Theme)

	return nil
}

//---------------------------------------------------------------------

func newSetPreferencesCmd() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "update preferences; only given values are changed",
		Flags: []cli.Flag{
			&cli.FloatFlag{Name: "speed", Usage: "default playback speed (0, 4]"},
			&cli.IntFlag{Name: "skip-forward", Usage: "skip forward step in seconds"},
			&cli.IntFlag{Name: "skip-backward", Usage: "skip backward step in seconds"},
			&cli.StringFlag{Name: "theme", Usage: "ui theme (system, light, dark)"},
		},
		Action: wrapAuth(setPreferencesCmd),
	}
}

func setPreferencesCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	patch := preferencesPatchFromFlags(clicmd)
	if patch.Empty() {
		return aerr.ErrValidation.WithUserMsg("nothing to change")
	}

	store := do.MustInvoke[*syncstore.Store](injector)
	if err := store.UpdatePreferences(ctx, patch); err != nil {
		return aerr.Wrapf(err, "update preferences failed")
	}

	return showPreferencesCmd(ctx, clicmd, injector)
}

func preferencesPatchFromFlags(clicmd *cli.Command) model.PreferencesPatch {
	var patch model.PreferencesPatch

	if clicmd.IsSet("speed") {
		v := clicmd.Float("speed")
		patch.DefaultPlaybackSpeed = &v
	}

	if clicmd.IsSet("skip-forward") {
		v := int(clicmd.Int("skip-forward"))
		patch.DefaultSkipForward = &v
	}

	if clicmd.IsSet("skip-backward") {
		v := int(clicmd.Int("skip-backward"))
		patch.DefaultSkipBackward = &v
	}

	if clicmd.IsSet("theme") {
		v := model.Theme(clicmd.String("theme"))
		patch.Theme = &v
	}

	return patch
}
