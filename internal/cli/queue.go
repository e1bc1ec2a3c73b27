package cli

//
// queue.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/common"
	"gitlab.com/kabes/go-relay/internal/model"
	"gitlab.com/kabes/go-relay/internal/relayapi"
	"gitlab.com/kabes/go-relay/internal/syncstore"
	"gitlab.com/kabes/go-relay/internal/validators"
	"golang.org/x/sync/errgroup"
)

const metadataFetchLimit = 4

func newListQueueCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list queued episodes",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "details", Aliases: []string{"d"}, Usage: "load episodes titles from server"},
		},
		Action: wrapAuth(listQueueCmd),
	}
}

func listQueueCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	store := do.MustInvoke[*syncstore.Store](injector)
	doc := store.Data()

	var episodes map[string]*model.Episode

	if clicmd.Bool("details") {
		client := do.MustInvoke[*relayapi.Client](injector)
		episodes = fetchEpisodes(ctx, client, doc.Queue)
	}

	fmt.Println(renderQueue(doc, episodes)) //nolint:forbidigo

	return nil
}

// fetchEpisodes load metadata of episodes; failed episodes are skipped.
func fetchEpisodes(ctx context.Context, client *relayapi.Client, ids []string) map[string]*model.Episode {
	results := make([]*model.Episode, len(ids))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(metadataFetchLimit)

	for idx, id := range ids {
		numid, ok := validators.ParseID(id)
		if !ok {
			continue
		}

		group.Go(func() error {
			ep, err := client.GetEpisode(gctx, numid)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Str(common.LogKeyEpisodeID, id).Msg("get episode failed")

				return nil
			}

			results[idx] = ep

			return nil
		})
	}

	_ = group.Wait()

	res := make(map[string]*model.Episode, len(ids))

	for idx, id := range ids {
		if results[idx] != nil {
			res[id] = results[idx]
		}
	}

	return res
}

func renderQueue(doc model.UserDocument, episodes map[string]*model.Episode) string {
	rows := make([][]string, 0, len(doc.Queue))

	for idx, id := range doc.Queue {
		row := []string{strconv.Itoa(idx + 1), id, "", "", ""}

		if ep, ok := episodes[id]; ok {
			row[2] = ep.Title
			row[3] = ep.FeedTitle
		}

		if p, ok := doc.Progress(id); ok {
			row[4] = string(p.Status)
		}

		rows = append(rows, row)
	}

	return renderTable([]string{"#", "Episode", "Title", "Podcast", "Status"}, rows, alignRight, alignRight)
}

//---------------------------------------------------------------------

func newAddToQueueCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "add episodes to the end of queue",
		ArgsUsage: "<episode id>...",
		Action:    wrapAuth(addToQueueCmd),
	}
}

func addToQueueCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	ids, err := episodeIDsArgs(clicmd.Args().Slice())
	if err != nil {
		return err
	}

	store := do.MustInvoke[*syncstore.Store](injector)

	for _, id := range ids {
		if err := store.AddToQueue(ctx, id); err != nil {
			return aerr.Wrapf(err, "add to queue failed")
		}
	}

	fmt.Printf("Queue length: %d\n", len(store.Data().Queue)) //nolint:forbidigo

	return nil
}

//---------------------------------------------------------------------

func newRemoveFromQueueCmd() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "remove episodes from queue",
		ArgsUsage: "<episode id>...",
		Aliases:   []string{"rm"},
		Action:    wrapAuth(removeFromQueueCmd),
	}
}

func removeFromQueueCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	ids, err := episodeIDsArgs(clicmd.Args().Slice())
	if err != nil {
		return err
	}

	store := do.MustInvoke[*syncstore.Store](injector)

	for _, id := range ids {
		if err := store.RemoveFromQueue(ctx, id); err != nil {
			return aerr.Wrapf(err, "remove from queue failed")
		}
	}

	fmt.Printf("Queue length: %d\n", len(store.Data().Queue)) //nolint:forbidigo

	return nil
}

//---------------------------------------------------------------------

func newReorderQueueCmd() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "replace queue with given episodes (in given order)",
		ArgsUsage: "<episode id>...",
		Aliases:   []string{"reorder"},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "clear", Usage: "allow empty list (clear queue)"},
		},
		Action: wrapAuth(reorderQueueCmd),
	}
}

func reorderQueueCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	args := clicmd.Args().Slice()
	if len(args) == 0 && !clicmd.Bool("clear") {
		return aerr.ErrValidation.WithUserMsg("missing episodes; use --clear to empty queue")
	}

	ids := []string{}

	if len(args) > 0 {
		var err error
		if ids, err = episodeIDsArgs(args); err != nil {
			return err
		}
	}

	store := do.MustInvoke[*syncstore.Store](injector)
	if err := store.ReorderQueue(ctx, ids); err != nil {
		return aerr.Wrapf(err, "update queue failed")
	}

	fmt.Printf("Queue length: %d\n", len(store.Data().Queue)) //nolint:forbidigo

	return nil
}

//---------------------------------------------------------------------

// episodeIDsArgs validate list of episodes ids given as arguments.
func episodeIDsArgs(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, common.ErrInvalidEpisode.WithUserMsg("missing episode id")
	}

	for _, id := range args {
		if !validators.IsValidEpisodeID(id) {
			return nil, common.ErrInvalidEpisode.WithUserMsg("invalid episode id %q", id)
		}
	}

	return args, nil
}
