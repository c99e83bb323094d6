// Package mysql loads catalog tables into MySQL through database/sql and
// go-sql-driver/mysql, using batched multi-row INSERTs.
//
// Usage:
//
//	cfg := database.DefaultConfig(database.DriverMySQL, "user:pass@tcp(localhost:3306)/ddr")
//	sink, err := mysql.New(ctx, cfg)
//	if err != nil { ... }
//	defer sink.Close()
//	err = sink.WriteTables(ctx, cat.All())
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/koustreak/ddrlens/internal/catalog"
	"github.com/koustreak/ddrlens/internal/database"
	"github.com/koustreak/ddrlens/internal/errs"
)

// Driver is a MySQL implementation of database.Sink backed by database/sql.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db  *sql.DB
	cfg *database.Config
}

var _ database.Sink = (*Driver)(nil)

// New opens a MySQL connection pool using cfg and pings before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	dsn, err := normalizeDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid DSN", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConns))
	}
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	d := &Driver{db: db, cfg: cfg}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// normalizeDSN parses dsn, turns off client-side interpolation and
// multi-statements, and defaults to strict mode.
func normalizeDSN(dsn string) (string, error) {
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "invalid DSN", err)
	}
	c.MultiStatements = false
	c.InterpolateParams = false
	if c.Params == nil {
		c.Params = map[string]string{}
	}
	if _, ok := c.Params["sql_mode"]; !ok {
		c.Params["sql_mode"] = "'STRICT_ALL_TABLES'"
	}
	return c.FormatDSN(), nil
}

// Ping verifies the database is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close closes the connection pool.
func (d *Driver) Close() {
	_ = d.db.Close()
}

// WriteTables replaces every table inside one transaction. MySQL commits
// DDL implicitly, so a failure part way leaves earlier tables replaced.
func (d *Driver) WriteTables(ctx context.Context, tables []*catalog.Table) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range tables {
		id := d.cfg.Ident(t.Name())
		if err := database.LoadTable(ctx, tx, database.DialectMySQL, id, t, d.cfg.BatchSize); err != nil {
			return mapError(err, fmt.Sprintf("failed to load %s", id))
		}
	}

	if err := tx.Commit(); err != nil {
		return mapError(err, "failed to commit")
	}
	return nil
}
