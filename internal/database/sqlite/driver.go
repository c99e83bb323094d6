// Package sqlite loads catalog tables into a single SQLite database file,
// the quickest way to query an export with plain SQL.
//
// Usage:
//
//	cfg := database.DefaultConfig(database.DriverSQLite, "Orders.db")
//	sink, err := sqlite.New(ctx, cfg)
//	if err != nil { ... }
//	defer sink.Close()
//	err = sink.WriteTables(ctx, cat.All())
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // register "sqlite3" driver

	"github.com/koustreak/ddrlens/internal/catalog"
	"github.com/koustreak/ddrlens/internal/database"
	"github.com/koustreak/ddrlens/internal/errs"
)

// Driver is a SQLite implementation of database.Sink.
type Driver struct {
	db  *sql.DB
	cfg *database.Config
}

var _ database.Sink = (*Driver)(nil)

// New opens (creating if needed) the database file named by cfg.DSN.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	if cfg.DSN == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "sqlite database path is required")
	}

	db, err := sql.Open("sqlite3", filepath.Clean(cfg.DSN))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid database path", err)
	}
	// one writer; sqlite serializes writes anyway
	db.SetMaxOpenConns(1)

	d := &Driver{db: db, cfg: cfg}

	if err := d.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, mapError(err, "failed to enable WAL mode")
	}

	return d, nil
}

// Ping verifies the database file can be opened.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close checkpoints the WAL back into the main file and closes it.
func (d *Driver) Close() {
	_, _ = d.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	_ = d.db.Close()
}

// WriteTables replaces every table in one transaction.
func (d *Driver) WriteTables(ctx context.Context, tables []*catalog.Table) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range tables {
		id := d.cfg.Ident(t.Name())
		if err := database.LoadTable(ctx, tx, database.DialectSQLite, id, t, d.cfg.BatchSize); err != nil {
			return mapError(err, fmt.Sprintf("failed to load %s", id))
		}
	}

	if err := tx.Commit(); err != nil {
		return mapError(err, "failed to commit")
	}
	return nil
}

// DB exposes the underlying handle for read-back queries.
func (d *Driver) DB() *sql.DB {
	return d.db
}
