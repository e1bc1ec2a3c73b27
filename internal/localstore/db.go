package localstore

//
// db.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"runtime"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-relay/internal/aerr"

	// sqlite driver.
	_ "github.com/mattn/go-sqlite3"
)

//go:embed "migrations/*.sql"
var embedMigrations embed.FS

const driverName = "sqlite3"

// Database is local device database (sqlite) holding client state that must survive restart.
type Database struct {
	db *sqlx.DB

	queryDuration *prometheus.HistogramVec
}

func NewDatabaseI(_ do.Injector) (*Database, error) {
	return &Database{}, nil
}

func (r *Database) Connect(ctx context.Context, connstr string) error {
	var err error

	// add some required parameters to connstr
	connstr, err = prepareSqliteConnstr(connstr)
	if err != nil {
		return err
	}

	logger := log.Ctx(ctx)
	logger.Debug().Msgf("localstore: connecting to %q", connstr)

	r.db, err = sqlx.Open(driverName, connstr)
	if err != nil {
		return aerr.Wrapf(err, "open database failed").WithTag(aerr.InternalError).WithMeta("connstr", connstr)
	}

	// single writer; one process owns the file
	r.db.SetMaxOpenConns(1)
	r.db.SetMaxIdleConns(1)
	r.db.SetConnMaxIdleTime(0)

	if err := r.onConnect(ctx, r.db); err != nil {
		return aerr.Wrapf(err, "call startup scripts error").WithTag(aerr.InternalError)
	}

	if err := r.db.PingContext(ctx); err != nil {
		return aerr.Wrapf(err, "ping database failed").WithTag(aerr.InternalError)
	}

	return nil
}

// RegisterMetrics add database stats collector and query duration histogram to reg.
func (r *Database) RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(collectors.NewDBStatsCollector(r.db.DB, "localstore"))

	r.queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_localstore_query_duration_seconds",
			Help:    "Tracks the latencies for local database query.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"caller"},
	)

	reg.MustRegister(r.queryDuration)
}

// Shutdown close database. Called by samber/do.
func (r *Database) Shutdown(ctx context.Context) error {
	if r.db == nil {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("localstore: optimize on close failed")
	}

	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db error: %w", err)
	}

	r.db = nil

	logger := log.Ctx(ctx)
	logger.Debug().Msg("localstore: db closed")

	return nil
}

// Migrate apply all pending embedded migrations.
func (r *Database) Migrate(ctx context.Context) error {
	logger := log.Ctx(ctx)

	migdir, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		panic(fmt.Errorf("prepare migration fs failed: %w", err))
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, r.db.DB, migdir)
	if err != nil {
		panic(fmt.Errorf("create goose provider failed: %w", err))
	}

	ver, err := provider.GetDBVersion(ctx)
	if err != nil {
		return aerr.ApplyFor(aerr.ErrDatabase, err, "failed to check current database version")
	}

	logger.Debug().Msgf("localstore: current database version: %d", ver)

	for {
		res, err := provider.UpByOne(ctx)
		if res != nil {
			logger.Debug().Msgf("localstore: migration: %s", res)
		}

		if errors.Is(err, goose.ErrNoNextVersion) {
			break
		} else if err != nil {
			return aerr.ApplyFor(aerr.ErrDatabase, err, "migrate database up failed")
		}
	}

	ver, err = provider.GetDBVersion(ctx)
	if err != nil {
		return aerr.ApplyFor(aerr.ErrDatabase, err, "failed to check current database version")
	}

	logger.Debug().Msgf("localstore: migrated database version: %d", ver)

	return nil
}

// Open connect to database and apply migrations.
func (r *Database) Open(ctx context.Context, connstr string) error {
	if err := r.Connect(ctx, connstr); err != nil {
		return err
	}

	return r.Migrate(ctx)
}

func (r *Database) GetConnection(ctx context.Context) (*sqlx.Conn, error) {
	if r.db == nil {
		return nil, aerr.ErrDatabase.WithError(errNotConnected)
	}

	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, aerr.ApplyFor(aerr.ErrDatabase, err, "failed open connection")
	}

	return conn, nil
}

func (r *Database) CloseConnection(ctx context.Context, conn *sqlx.Conn) {
	if err := conn.Close(); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("localstore: close connection failed")
	}
}

func (r *Database) onConnect(ctx context.Context, db sqlx.ExecerContext) error {
	_, err := db.ExecContext(ctx,
		"PRAGMA temp_store = MEMORY;",
	)
	if err != nil {
		return aerr.ApplyFor(aerr.ErrDatabase, err, "execute onConnect script failed")
	}

	return nil
}

func (r *Database) observeQueryDuration(start time.Time) {
	if r.queryDuration == nil {
		return
	}

	const skipFrames = 3

	rpc := make([]uintptr, 1)
	if n := runtime.Callers(skipFrames, rpc); n < 1 {
		return
	}

	frame, _ := runtime.CallersFrames(rpc).Next()
	if frame.PC == 0 {
		return
	}

	caller := frame.Function
	r.queryDuration.WithLabelValues(caller).Observe(time.Since(start).Seconds())
}

//------------------------------------------------------------------------------

var errNotConnected = errors.New("database not connected")

func prepareSqliteConnstr(connstr string) (string, error) {
	if connstr == "" {
		return "", aerr.ErrInvalidConf.WithUserMsg("invalid (empty) database path")
	}

	if connstr == ":memory:" {
		return ":memory:?_fk=ON", nil
	}

	parsed, err := url.Parse(connstr)
	if err != nil {
		return "", aerr.ApplyFor(aerr.ErrInvalidConf, err, "failed to parse database path")
	}

	if parsed.Path == "" && parsed.Opaque == "" {
		return "", aerr.ErrInvalidConf.WithUserMsg("invalid database path")
	}

	query := parsed.Query()
	if !query.Has("_fk") && !query.Has("_foreign_keys") {
		query.Set("_fk", "ON")
	}

	if !query.Has("_journal_mode") && !query.Has("_journal") {
		query.Set("_journal_mode", "WAL")
	}

	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

//------------------------------------------------------------------------------

// InConnectionR run `fun` with database connection in context. Open/close connection.
// Return `fun` result and error.
func InConnectionR[T any](ctx context.Context, r *Database,
	fun func(context.Context) (T, error),
) (T, error) {
	start := time.Now()
	defer r.observeQueryDuration(start)

	conn, err := r.GetConnection(ctx)
	if err != nil {
		return *new(T), err
	}

	defer r.CloseConnection(ctx, conn)

	return fun(WithCtx(ctx, conn))
}

// InTransaction run `fun` in db transactions.
func InTransaction(ctx context.Context, r *Database, fun func(context.Context) error) error {
	start := time.Now()
	defer r.observeQueryDuration(start)

	conn, err := r.GetConnection(ctx)
	if err != nil {
		return err
	}

	defer r.CloseConnection(ctx, conn)

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return aerr.ApplyFor(aerr.ErrDatabase, err, "begin tx failed")
	}

	if err := fun(WithCtx(ctx, tx)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			merr := errors.Join(err, fmt.Errorf("rollback error: %w", rerr))

			return aerr.ApplyFor(aerr.ErrDatabase, merr, "execute func in trans and rollback error")
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return aerr.ApplyFor(aerr.ErrDatabase, err, "commit tx failed")
	}

	return nil
}
