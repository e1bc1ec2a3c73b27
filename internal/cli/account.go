package cli

//
// account.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/localstore"
	"gitlab.com/kabes/go-relay/internal/relayapi"
	"gitlab.com/kabes/go-relay/internal/seal"
	"gitlab.com/kabes/go-relay/internal/syncstore"
	"golang.org/x/term"
)

func newCreateAccountCmd() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "register new account on relay server and print its secret",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "login", Usage: "log in with created account"},
		},
		Action: wrap(createAccountCmd),
	}
}

func createAccountCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	client := do.MustInvoke[*relayapi.Client](injector)

	secret, err := client.CreateAccount(ctx)
	if err != nil {
		return aerr.Wrapf(err, "create account failed")
	}

	log.Ctx(ctx).Info().Msg("account created")

	//nolint:forbidigo
	fmt.Printf("Account created. Secret (keep it safe, it can't be recovered):\n\n  %s\n\n", secret)

	if !clicmd.Bool("login") {
		return nil
	}

	store := do.MustInvoke[*syncstore.Store](injector)
	if err := store.Login(ctx, secret); err != nil {
		return aerr.Wrapf(err, "login failed")
	}

	fmt.Println("Logged in") //nolint:forbidigo

	return nil
}

//---------------------------------------------------------------------

func newGenerateSecretCmd() *cli.Command {
	return &cli.Command{
		Name:   "new",
		Usage:  "generate new random secret without contacting server",
		Action: generateSecretCmd,
	}
}

func generateSecretCmd(_ context.Context, _ *cli.Command) error {
	secret, err := seal.GenerateSecret()
	if err != nil {
		return aerr.Wrapf(err, "generate secret failed")
	}

	fmt.Println(secret) //nolint:forbidigo

	return nil
}

//---------------------------------------------------------------------

func newVerifyAccountCmd() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "check secret on relay server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret", Usage: "account secret; stored or prompted when empty", Sources: cli.EnvVars("RELAY_SECRET")},
		},
		Action: wrap(verifyAccountCmd),
	}
}

func verifyAccountCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	secret, err := resolveSecret(ctx, injector, clicmd.String("secret"))
	if err != nil {
		return err
	}

	client := do.MustInvoke[*relayapi.Client](injector)

	res, err := client.VerifyKey(ctx, secret)
	if err != nil {
		return aerr.Wrapf(err, "verify account failed")
	}

	//nolint:forbidigo
	if !res.Valid {
		fmt.Println("Account: invalid")

		return nil
	}

	//nolint:forbidigo
	fmt.Println("Account: valid")

	if res.CreatedAt != nil {
		fmt.Printf("Created:  %s\n", res.CreatedAt.Local().Format("2006-01-02 15:04:05")) //nolint:forbidigo
	}

	fmt.Printf("Has data: %t\n", res.EncryptedBlob != nil) //nolint:forbidigo

	return nil
}

//---------------------------------------------------------------------

func newDeleteAccountCmd() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "delete account and all data stored on relay server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret", Usage: "account secret; stored or prompted when empty", Sources: cli.EnvVars("RELAY_SECRET")},
			&cli.BoolFlag{Name: "yes", Usage: "confirm removal", Aliases: []string{"y"}},
		},
		Action: wrap(deleteAccountCmd),
	}
}

func deleteAccountCmd(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	if !clicmd.Bool("yes") {
		return aerr.ErrValidation.WithUserMsg("account removal must be confirmed with --yes")
	}

	secret, err := resolveSecret(ctx, injector, clicmd.String("secret"))
	if err != nil {
		return err
	}

	client := do.MustInvoke[*relayapi.Client](injector)
	if err := client.DeleteAccount(ctx, secret); err != nil {
		return aerr.Wrapf(err, "delete account failed")
	}

	// forget local session when it belongs to removed account
	secrets := do.MustInvoke[*localstore.SecretStore](injector)
	if stored, err := secrets.LoadSecret(ctx); err == nil && stored == secret {
		if err := secrets.RemoveSecret(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("remove stored secret failed")
		}
	}

	fmt.Println("Account deleted") //nolint:forbidigo

	return nil
}

//---------------------------------------------------------------------

// resolveSecret return secret given by user, stored in local database or
// read from terminal, in this order.
func resolveSecret(ctx context.Context, injector do.Injector, secret string) (string, error) {
	if secret = strings.TrimSpace(secret); secret != "" {
		return secret, nil
	}

	secrets := do.MustInvoke[*localstore.SecretStore](injector)

	stored, err := secrets.LoadSecret(ctx)
	if err != nil {
		return "", aerr.Wrapf(err, "load stored secret failed")
	}

	if stored != "" {
		return stored, nil
	}

	return readSecret("")
}

// readSecret return trimmed secret or ask user for it when empty.
func readSecret(secret string) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		fmt.Fprint(os.Stderr, "Enter secret: ")

		bytepw, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec
		fmt.Fprintln(os.Stderr)

		if err != nil {
			return "", fmt.Errorf("read secret error: %w", err)
		}

		secret = strings.TrimSpace(string(bytepw))
	}

	if secret == "" {
		return "", aerr.ErrValidation.WithUserMsg("secret can't be empty")
	}

	return secret, nil
}
