package cli

//
// subscriptions.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"fmt"
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

func newListSubscriptionsCmd() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "list subscribed podcasts",
		Action: wrapAuth(listSubscriptionsCmd),
	}
}

func listSubscriptionsCmd(_ context.Context, _ *cli.Command, injector do.Injector) error {
	store := do.MustInvoke[*syncstore.Store](injector)
	doc := store.Data()

	fmt.Println(renderSubscriptions(doc.Subscriptions)) //nolint:forbidigo
	fmt.Printf("\nTotal: %d\n", len(doc.Subscriptions)) //nolint:forbidigo

	return nil
}

func renderSubscriptions(subs []model.Subscription) string {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{
			s.PodcastID, s.Title, s.Author,
			s.SubscribedAt.Local().Format(time.DateOnly),
			fmt.Sprintf("%0.2g", s.Settings.PlaybackSpeed),
		})
	}

	return renderTable([]string{"ID", "Title", "Author", "Subscribed", "Speed"}, rows,
		alignRight, alignLeft, alignLeft, alignLeft, alignRight)
}

//---------------------------------------------------------------------

func newAddSubscriptionCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "subscribe podcast",
		ArgsUsage: "<podcast id>",
		Action:    wrapAuth(addSubscriptionCmd),
	}
}

func addSubscriptionCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	podcastID, ok := validators.ParseID(clicmd.Args().First())
	if !ok {
		return common.ErrInvalidPodcast.WithUserMsg("invalid podcast id %q", clicmd.Args().First())
	}

	client := do.MustInvoke[*relayapi.Client](injector)

	podcast, err := client.GetPodcast(ctx, podcastID)
	if err != nil {
		return aerr.Wrapf(err, "get podcast failed")
	}

	store := do.MustInvoke[*syncstore.Store](injector)
	sub := model.NewSubscriptionFromPodcast(podcast, store.Data().Preferences, time.Now())

	if err := store.AddSubscription(ctx, sub); err != nil {
		return aerr.Wrapf(err, "add subscription failed")
	}

	fmt.Printf("Subscribed %q\n", podcast.Title) //nolint:forbidigo

	return nil
}

//---------------------------------------------------------------------

func newRemoveSubscriptionCmd() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "unsubscribe podcast",
		ArgsUsage: "<podcast id>",
		Aliases:   []string{"rm"},
		Action:    wrapAuth(removeSubscriptionCmd),
	}
}

func removeSubscriptionCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	podcastID := clicmd.Args().First()
	if !validators.IsValidPodcastID(podcastID) {
		return common.ErrInvalidPodcast.WithUserMsg("invalid podcast id %q", podcastID)
	}

	store := do.MustInvoke[*syncstore.Store](injector)
	if _, ok := store.Data().Subscription(podcastID); !ok {
		return aerr.ErrValidation.WithUserMsg("podcast %s is not subscribed", podcastID)
	}

	if err := store.RemoveSubscription(ctx, podcastID); err != nil {
		return aerr.Wrapf(err, "remove subscription failed")
	}

	fmt.Println("Unsubscribed") //nolint:forbidigo

	return nil
}
