package localstore

//
// secrets.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
)

// SecretKey is key under which account secret is stored.
const SecretKey = "relay_key"

// SecretStore persist account secret between client runs.
type SecretStore struct {
	db   *Database
	repo StateRepository
}

func NewSecretStoreI(i do.Injector) (*SecretStore, error) {
	return &SecretStore{
		db:   do.MustInvoke[*Database](i),
		repo: do.MustInvoke[StateRepository](i),
	}, nil
}

func NewSecretStore(db *Database) *SecretStore {
	return &SecretStore{db: db}
}

// LoadSecret return stored secret or empty string when no secret is saved.
func (s *SecretStore) LoadSecret(ctx context.Context) (string, error) {
	state, err := InConnectionR(ctx, s.db, func(ctx context.Context) (StateDB, error) {
		return s.repo.GetState(ctx, SecretKey)
	})
	if errors.Is(err, ErrNoData) {
		return "", nil
	} else if err != nil {
		return "", err
	}

	log.Ctx(ctx).Debug().Object("state", &state).Msg("localstore: secret loaded")

	return state.Value, nil
}

func (s *SecretStore) SaveSecret(ctx context.Context, secret string) error {
	return InTransaction(ctx, s.db, func(ctx context.Context) error {
		return s.repo.SaveState(ctx, SecretKey, secret)
	})
}

func (s *SecretStore) RemoveSecret(ctx context.Context) error {
	return InTransaction(ctx, s.db, func(ctx context.Context) error {
		return s.repo.DeleteState(ctx, SecretKey)
	})
}
