package localstore

//
// localstore_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/assert"
)

func prepareDB(t *testing.T) *Database {
	t.Helper()

	ctx := context.Background()
	db := &Database{}

	assert.NoErr(t, db.Open(ctx, filepath.Join(t.TempDir(), "relay.sqlite")))
	t.Cleanup(func() { _ = db.Shutdown(ctx) })

	return db
}

func TestSecretStore(t *testing.T) {
	ctx := context.Background()
	store := NewSecretStore(prepareDB(t))

	secret, err := store.LoadSecret(ctx)
	assert.NoErr(t, err)
	assert.Equal(t, secret, "")

	assert.NoErr(t, store.SaveSecret(ctx, "first"))

	secret, err = store.LoadSecret(ctx)
	assert.NoErr(t, err)
	assert.Equal(t, secret, "first")

	assert.NoErr(t, store.SaveSecret(ctx, "second"))

	secret, err = store.LoadSecret(ctx)
	assert.NoErr(t, err)
	assert.Equal(t, secret, "second")

	assert.NoErr(t, store.RemoveSecret(ctx))
	assert.NoErr(t, store.RemoveSecret(ctx))

	secret, err = store.LoadSecret(ctx)
	assert.NoErr(t, err)
	assert.Equal(t, secret, "")
}

func TestSecretStorePersistent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "relay.sqlite")

	db := &Database{}
	assert.NoErr(t, db.Open(ctx, path))
	assert.NoErr(t, NewSecretStore(db).SaveSecret(ctx, "abc"))
	assert.NoErr(t, db.Shutdown(ctx))

	db = &Database{}
	assert.NoErr(t, db.Open(ctx, path))

	defer db.Shutdown(ctx)

	secret, err := NewSecretStore(db).LoadSecret(ctx)
	assert.NoErr(t, err)
	assert.Equal(t, secret, "abc")
}

func TestStateRepository(t *testing.T) {
	ctx := context.Background()
	db := prepareDB(t)
	repo := StateRepository{}

	_, err := InConnectionR(ctx, db, func(ctx context.Context) (StateDB, error) {
		return repo.GetState(ctx, "missing")
	})
	assert.ErrSpec(t, err, ErrNoData)

	err = InTransaction(ctx, db, func(ctx context.Context) error {
		return repo.SaveState(ctx, "k1", "v1")
	})
	assert.NoErr(t, err)

	state, err := InConnectionR(ctx, db, func(ctx context.Context) (StateDB, error) {
		return repo.GetState(ctx, "k1")
	})
	assert.NoErr(t, err)
	assert.Equal(t, state.Value, "v1")
	assert.False(t, state.UpdatedAt.IsZero())

	// rollback on error
	err = InTransaction(ctx, db, func(ctx context.Context) error {
		if err := repo.SaveState(ctx, "k1", "v2"); err != nil {
			return err
		}

		return aerr.ErrValidation
	})
	assert.ErrSpec(t, err, aerr.ErrValidation)

	state, err = InConnectionR(ctx, db, func(ctx context.Context) (StateDB, error) {
		return repo.GetState(ctx, "k1")
	})
	assert.NoErr(t, err)
	assert.Equal(t, state.Value, "v1")
}

func TestInMemoryDatabase(t *testing.T) {
	ctx := context.Background()
	db := &Database{}
	assert.NoErr(t, db.Open(ctx, ":memory:"))

	defer db.Shutdown(ctx)

	db.RegisterMetrics(prometheus.NewRegistry())

	store := NewSecretStore(db)
	assert.NoErr(t, store.SaveSecret(ctx, "mem"))

	secret, err := store.LoadSecret(ctx)
	assert.NoErr(t, err)
	assert.Equal(t, secret, "mem")
}

func TestNotConnected(t *testing.T) {
	_, err := NewSecretStore(&Database{}).LoadSecret(context.Background())
	assert.ErrSpec(t, err, aerr.ErrDatabase)
}

func TestPrepareSqliteConnstr(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{":memory:", ":memory:?_fk=ON", false},
		{"relay.sqlite", "relay.sqlite?_fk=ON&_journal_mode=WAL", false},
		{"/tmp/relay.sqlite?_fk=OFF", "/tmp/relay.sqlite?_fk=OFF&_journal_mode=WAL", false},
		{"", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			res, err := prepareSqliteConnstr(tc.in)
			if tc.err {
				assert.ErrSpec(t, err, aerr.ErrInvalidConf)
			} else {
				assert.NoErr(t, err)
				assert.Equal(t, res, tc.want)
			}
		})
	}
}
