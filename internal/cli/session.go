package cli

//
// session.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/model"
	"gitlab.com/kabes/go-relay/internal/syncstore"
)

func newLoginCmd() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "log in with account secret; secret is remembered in local database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret", Usage: "account secret; prompted when empty", Sources: cli.EnvVars("RELAY_SECRET")},
		},
		Action: wrap(loginCmd),
	}
}

func loginCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	secret, err := readSecret(clicmd.String("secret"))
	if err != nil {
		return err
	}

	store := do.MustInvoke[*syncstore.Store](injector)
	if err := store.Login(ctx, secret); err != nil {
		return aerr.Wrapf(err, "login failed")
	}

	doc := store.Data()

	//nolint:forbidigo
	fmt.Printf("Logged in; subscriptions: %d, queued episodes: %d\n", len(doc.Subscriptions), len(doc.Queue))

	return nil
}

//---------------------------------------------------------------------

func newLogoutCmd() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "forget account secret and local data",
		Action: wrap(logoutCmd),
	}
}

func logoutCmd(ctx context.Context, _ *cli.Command, injector do.Injector) error {
	store := do.MustInvoke[*syncstore.Store](injector)
	if err := store.Logout(ctx); err != nil {
		return aerr.Wrapf(err, "logout failed")
	}

	fmt.Println("Logged out") //nolint:forbidigo

	return nil
}

//---------------------------------------------------------------------

func newStatusCmd() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "show session status",
		Action: wrap(statusCmd),
	}
}

func statusCmd(ctx context.Context, _ *cli.Command, injector do.Injector) error {
	store := do.MustInvoke[*syncstore.Store](injector)

	// invalid stored secret is reported as logged out
	_ = store.Resume(ctx)

	printStatus(store.Status(), store.Data())

	return nil
}

//nolint:forbidigo
func printStatus(status syncstore.Status, doc model.UserDocument) {
	fmt.Printf("State:             %s\n", status.State)

	if status.LastSyncError != nil {
		fmt.Printf("Last sync error:   %s\n", aerr.GetUserMessageOr(status.LastSyncError, status.LastSyncError.Error()))
	}

	if status.State != syncstore.StateAuthenticated {
		return
	}

	fmt.Printf("Subscriptions:     %d\n", len(doc.Subscriptions))
	fmt.Printf("Queue:             %d\n", len(doc.Queue))
	fmt.Printf("Episodes progress: %d\n", len(doc.EpisodeProgress))
	fmt.Printf("Currently playing: %s\n", doc.CurrentlyPlaying)
}

//---------------------------------------------------------------------

func newSyncCmd() *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "push local document to relay server",
		Action: wrapAuth(syncCmd),
	}
}

func syncCmd(ctx context.Context, _ *cli.Command, injector do.Injector) error {
	store := do.MustInvoke[*syncstore.Store](injector)
	if err := store.Sync(ctx); err != nil {
		return aerr.Wrapf(err, "sync failed")
	}

	fmt.Fprintln(os.Stderr, "Synchronized") //nolint:forbidigo

	return nil
}
