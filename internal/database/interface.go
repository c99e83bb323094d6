package database

import (
	"context"

	"github.com/koustreak/ddrlens/internal/catalog"
)

// Sink is the contract every database driver implements: it replaces the
// catalog tables in the target database. Layers above this package talk
// only to Sink and never import a driver package directly.
type Sink interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// WriteTables drops and recreates each table, then loads its rows.
	// The load runs in one transaction; engines with transactional DDL
	// (postgres, sqlite) keep nothing on error.
	WriteTables(ctx context.Context, tables []*catalog.Table) error

	// Close releases all resources held by the connection pool.
	Close()
}
