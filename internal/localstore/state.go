package localstore

//
// state.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-relay/internal/aerr"
)

var ErrNoData = aerr.NewSimple("no data").WithTag(aerr.DataError)

// StateDB is one row of local_state table.
type StateDB struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *StateDB) MarshalZerologObject(event *zerolog.Event) {
	// values may hold secrets; log only length
	event.Str("key", s.Key).
		Int("value_len", len(s.Value)).
		Time("updated_at", s.UpdatedAt)
}

// StateRepository access local_state key-value table. Require database
// connection in context (see InConnectionR, InTransaction).
type StateRepository struct{}

func NewStateRepositoryI(_ do.Injector) (StateRepository, error) {
	return StateRepository{}, nil
}

// GetState load value for key. Return ErrNoData when key not exists.
func (StateRepository) GetState(ctx context.Context, key string) (StateDB, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Msgf("localstore.StateRepository: get state key=%q", key)

	res := StateDB{}
	dbctx := MustCtx(ctx)

	err := dbctx.GetContext(ctx, &res,
		"SELECT key, value, updated_at FROM local_state WHERE key=?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return res, ErrNoData
	} else if err != nil {
		return res, aerr.ApplyFor(aerr.ErrDatabase, err).WithMeta("key", key)
	}

	return res, nil
}

// SaveState insert or update value for key.
func (StateRepository) SaveState(ctx context.Context, key, value string) error {
	logger := log.Ctx(ctx)
	logger.Debug().Msgf("localstore.StateRepository: save state key=%q", key)

	dbctx := MustCtx(ctx)

	_, err := dbctx.ExecContext(ctx,
		"INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, time.Now().UTC())
	if err != nil {
		return aerr.ApplyFor(aerr.ErrDatabase, err).WithMeta("key", key)
	}

	return nil
}

// DeleteState remove key. Missing key is not an error.
func (StateRepository) DeleteState(ctx context.Context, key string) error {
	logger := log.Ctx(ctx)
	logger.Debug().Msgf("localstore.StateRepository: delete state key=%q", key)

	dbctx := MustCtx(ctx)

	if _, err := dbctx.ExecContext(ctx, "DELETE FROM local_state WHERE key=?", key); err != nil {
		return aerr.ApplyFor(aerr.ErrDatabase, err).WithMeta("key", key)
	}

	return nil
}
