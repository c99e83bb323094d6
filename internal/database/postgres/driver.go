// Package postgres loads catalog tables into PostgreSQL through a pgx
// connection pool, bulk-loading rows with COPY.
//
// Usage:
//
//	cfg := database.DefaultConfig(database.DriverPostgres, "postgres://localhost/ddr")
//	sink, err := postgres.New(ctx, cfg)
//	if err != nil { ... }
//	defer sink.Close()
//	err = sink.WriteTables(ctx, cat.All())
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koustreak/ddrlens/internal/catalog"
	"github.com/koustreak/ddrlens/internal/database"
	"github.com/koustreak/ddrlens/internal/errs"
)

// Driver is a PostgreSQL implementation of database.Sink backed by pgxpool.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	pool *pgxpool.Pool
	cfg  *database.Config
}

var _ database.Sink = (*Driver)(nil)

// New connects to PostgreSQL using cfg and pings before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid DSN", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create connection pool", err)
	}

	d := &Driver{pool: pool, cfg: cfg}

	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return d, nil
}

// Ping verifies the database is reachable by acquiring and releasing a connection.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool.
func (d *Driver) Close() {
	d.pool.Close()
}

// WriteTables replaces every table in one transaction. Postgres DDL is
// transactional, so a failed load leaves the previous tables intact.
func (d *Driver) WriteTables(ctx context.Context, tables []*catalog.Table) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return mapError(err, "failed to begin transaction")
	}
	// no-op once committed
	defer func() { _ = tx.Rollback(ctx) }()

	if d.cfg.Schema != "" {
		q, err := database.CreateSchema(database.DialectPostgres, d.cfg.Schema)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, q); err != nil {
			return mapError(err, "failed to create schema")
		}
	}

	for _, t := range tables {
		if err := d.copyTable(ctx, tx, t); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError(err, "failed to commit")
	}
	return nil
}

func (d *Driver) copyTable(ctx context.Context, tx pgx.Tx, t *catalog.Table) error {
	id := d.cfg.Ident(t.Name())

	if _, err := tx.Exec(ctx, database.DropTable(database.DialectPostgres, id)); err != nil {
		return mapError(err, fmt.Sprintf("failed to drop %s", id))
	}
	if _, err := tx.Exec(ctx, database.CreateTable(database.DialectPostgres, id, t.Schema())); err != nil {
		return mapError(err, fmt.Sprintf("failed to create %s", id))
	}
	if t.Len() == 0 {
		return nil
	}

	n, err := tx.CopyFrom(ctx, identifier(id), t.Schema().ColumnNames(), pgx.CopyFromRows(t.Rows()))
	if err != nil {
		return mapError(err, fmt.Sprintf("failed to copy into %s", id))
	}
	if int(n) != t.Len() {
		return errs.Newf(errs.ErrKindQueryFailed, "copied %d of %d rows into %s", n, t.Len(), id)
	}
	return nil
}

func identifier(id database.Ident) pgx.Identifier {
	if id.Schema == "" {
		return pgx.Identifier{id.Name}
	}
	return pgx.Identifier{id.Schema, id.Name}
}
