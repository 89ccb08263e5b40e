// Package store adapts the optional relational store. The core's only
// contract with it is a reachability probe and pass-through row upserts
// keyed by dataset name; table schemas are owned by the database side.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/eduanalytics/schoolsmcp/config"
	"github.com/eduanalytics/schoolsmcp/internal/dataset"
)

// ErrNotConfigured indicates no store connection parameters were supplied.
var ErrNotConfigured = errors.New("store: not configured")

// Store is the capability interface injected at startup. Core logic never
// branches on which concrete store backs it.
type Store interface {
	// Probe verifies connectivity within the given context's deadline.
	Probe(ctx context.Context) error

	// UpsertRows replaces the rows stored under datasetName with the
	// dataset's rows, returning the number written.
	UpsertRows(ctx context.Context, datasetName string, ds *dataset.Dataset) (int, error)

	// Configured reports whether this store can be reached at all.
	Configured() bool

	Close() error
}

// sqlStore is the database/sql-backed implementation (Postgres via lib/pq).
type sqlStore struct {
	db           *sql.DB
	probeTimeout time.Duration
}

// New opens a store from config. An unconfigured StoreConfig yields the
// disabled store, which reports ErrNotConfigured on use.
func New(cfg config.StoreConfig, probeTimeout time.Duration) (Store, error) {
	if !cfg.Configured() {
		return Disabled{}, nil
	}
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	if probeTimeout <= 0 {
		probeTimeout = config.DefaultStoreProbeTimeout
	}
	return &sqlStore{db: db, probeTimeout: probeTimeout}, nil
}

func (s *sqlStore) Configured() bool { return true }

func (s *sqlStore) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *sqlStore) UpsertRows(ctx context.Context, datasetName string, ds *dataset.Dataset) (int, error) {
	table := TableName(datasetName)
	cols := ds.ColumnNames()
	if len(cols) == 0 {
		return 0, fmt.Errorf("store: dataset %q has no columns", datasetName)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	// Replace semantics: the dataset name keys the whole table contents.
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(table)); err != nil {
		return 0, fmt.Errorf("store: clear %s: %w", table, err)
	}

	quoted := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pq.QuoteIdentifier(c)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(params, ", "))

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, row := range ds.Rows {
		args := make([]any, len(cols))
		for i, c := range cols {
			args[i] = row[c].Scalar()
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("store: insert into %s: %w", table, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return written, nil
}

func (s *sqlStore) Close() error { return s.db.Close() }

// TableName maps a dataset name to a safe lowercase table identifier.
func TableName(datasetName string) string {
	name := strings.ToLower(datasetName)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Disabled is the store used when no connection parameters are configured.
type Disabled struct{}

func (Disabled) Probe(context.Context) error { return ErrNotConfigured }

func (Disabled) UpsertRows(context.Context, string, *dataset.Dataset) (int, error) {
	return 0, ErrNotConfigured
}

func (Disabled) Configured() bool { return false }

func (Disabled) Close() error { return nil }
