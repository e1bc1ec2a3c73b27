package cli

//
// progress.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/common"
	"gitlab.com/kabes/go-relay/internal/model"
	"gitlab.com/kabes/go-relay/internal/relayapi"
	"gitlab.com/kabes/go-relay/internal/syncstore"
	"gitlab.com/kabes/go-relay/internal/validators"
)

func newListProgressCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list episodes progress",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "show only episodes with status (new, in_progress, completed)"},
		},
		Action: wrapAuth(listProgressCmd),
	}
}

func listProgressCmd(_ context.Context, clicmd *cli.Command, injector do.Injector) error {
	store := do.MustInvoke[*syncstore.Store](injector)

	fmt.Println(renderProgress(store.Data().EpisodeProgress, model.ProgressStatus(clicmd.String("status")))) //nolint:forbidigo

	return nil
}

// renderProgress format progress table sorted by last update, newest first.
func renderProgress(progress map[string]model.EpisodeProgress, status model.ProgressStatus) string {
	ids := slices.SortedFunc(maps.Keys(progress), func(a, b string) int {
		return progress[b].UpdatedAt.Compare(progress[a].UpdatedAt)
	})

	rows := make([][]string, 0, len(ids))

	for _, id := range ids {
		p := progress[id]
		if status != "" && p.Status != status {
			continue
		}

		rows = append(rows, []string{
			id, string(p.Status),
			formatSeconds(p.PositionSeconds) + " / " + formatSeconds(p.DurationSeconds),
			p.UpdatedAt.Local().Format(time.DateTime),
		})
	}

	return renderTable([]string{"Episode", "Status", "Position", "Updated"}, rows, alignRight)
}

//---------------------------------------------------------------------

func newSetProgressCmd() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "set episode progress",
		ArgsUsage: "<episode id>",
		Flags: []cli.Flag{
			&cli.FloatFlag{Name: "position", Aliases: []string{"p"}, Usage: "position in seconds"},
			&cli.FloatFlag{Name: "duration", Usage: "episode duration in seconds; loaded from server when not set"},
			&cli.BoolFlag{Name: "completed", Usage: "mark episode as completed"},
		},
		Action: wrapAuth(setProgressCmd),
	}
}

func setProgressCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	episodeID := clicmd.Args().First()

	numid, ok := validators.ParseID(episodeID)
	if !ok {
		return common.ErrInvalidEpisode.WithUserMsg("invalid episode id %q", episodeID)
	}

	duration := clicmd.Float("duration")
	if !clicmd.IsSet("duration") {
		client := do.MustInvoke[*relayapi.Client](injector)

		ep, err := client.GetEpisode(ctx, numid)
		if err != nil {
			return aerr.Wrapf(err, "get episode failed")
		}

		duration = ep.Duration
	}

	progress, err := newProgress(clicmd.Float("position"), duration, clicmd.Bool("completed"), time.Now())
	if err != nil {
		return err
	}

	store := do.MustInvoke[*syncstore.Store](injector)
	if err := store.UpdateEpisodeProgress(ctx, episodeID, progress); err != nil {
		return aerr.Wrapf(err, "update progress failed")
	}

	fmt.Printf("Episode %s: %s\n", episodeID, progress.Status) //nolint:forbidigo

	return nil
}

func newProgress(position, duration float64, completed bool, now time.Time) (model.EpisodeProgress, error) {
	if duration < 0 {
		return model.EpisodeProgress{}, aerr.ErrValidation.WithUserMsg("duration can't be negative")
	}

	if completed {
		return model.NewCompletedProgress(duration, now), nil
	}

	if position < 0 || (duration > 0 && position > duration) {
		return model.EpisodeProgress{}, aerr.ErrValidation.WithUserMsg("position must be in range [0, %0.0f]", duration)
	}

	return model.NewEpisodeProgress(position, duration, now), nil
}
