package cli

//
// search.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/common"
	"gitlab.com/kabes/go-relay/internal/model"
	"gitlab.com/kabes/go-relay/internal/relayapi"
	"gitlab.com/kabes/go-relay/internal/validators"
)

const defaultEpisodesLimit = 20

func newSearchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "search podcasts",
		ArgsUsage: "<query>",
		Action:    wrap(searchCmd),
	}
}

func searchCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	query := strings.Join(clicmd.Args().Slice(), " ")
	client := do.MustInvoke[*relayapi.Client](injector)

	res, err := client.SearchPodcasts(ctx, query)
	if err != nil {
		return aerr.Wrapf(err, "search failed")
	}

	fmt.Println(renderPodcasts(res.Feeds)) //nolint:forbidigo
	fmt.Printf("\nFound: %d\n", res.Count) //nolint:forbidigo

	return nil
}

func renderPodcasts(podcasts []model.Podcast) string {
	rows := make([][]string, 0, len(podcasts))
	for _, p := range podcasts {
		rows = append(rows, []string{p.IDString(), p.Title, p.Author, strconv.Itoa(p.EpisodeCount)})
	}

	return renderTable([]string{"ID", "Title", "Author", "Episodes"}, rows,
		alignRight, alignLeft, alignLeft, alignRight)
}

//---------------------------------------------------------------------

func newEpisodesCmd() *cli.Command {
	return &cli.Command{
		Name:      "episodes",
		Usage:     "list podcast episodes",
		ArgsUsage: "<podcast id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: defaultEpisodesLimit, Usage: "max number of episodes"},
		},
		Action: wrap(episodesCmd),
	}
}

func episodesCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	podcastID, ok := validators.ParseID(clicmd.Args().First())
	if !ok {
		return common.ErrInvalidPodcast.WithUserMsg("invalid podcast id %q", clicmd.Args().First())
	}

	client := do.MustInvoke[*relayapi.Client](injector)

	res, err := client.GetEpisodes(ctx, podcastID, int(clicmd.Int("limit")))
	if err != nil {
		return aerr.Wrapf(err, "get episodes failed")
	}

	fmt.Println(renderEpisodes(res.Items)) //nolint:forbidigo

	return nil
}

func renderEpisodes(episodes []model.Episode) string {
	rows := make([][]string, 0, len(episodes))

	for _, e := range episodes {
		published := ""
		if t := e.Published(); !t.IsZero() {
			published = t.Local().Format(time.DateOnly)
		}

		rows = append(rows, []string{e.IDString(), e.Title, published, formatSeconds(e.Duration)})
	}

	return renderTable([]string{"ID", "Title", "Published", "Duration"}, rows,
		alignRight, alignLeft, alignLeft, alignRight)
}
