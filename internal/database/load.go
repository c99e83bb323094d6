package database

import (
	"context"
	"database/sql"

	"github.com/koustreak/ddrlens/internal/catalog"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// LoadTable replaces the table id with the rows of t through ex, batching
// rows into multi-row INSERT statements. Errors are returned unmapped so
// the calling driver can classify them.
func LoadTable(ctx context.Context, ex Execer, d Dialect, id Ident, t *catalog.Table, batch int) error {
	s := t.Schema()

	if _, err := ex.ExecContext(ctx, DropTable(d, id)); err != nil {
		return err
	}
	if _, err := ex.ExecContext(ctx, CreateTable(d, id, s)); err != nil {
		return err
	}

	rows := t.Rows()
	step := BatchRows(s, batch)
	for start := 0; start < len(rows); start += step {
		end := min(start+step, len(rows))
		q, args, err := Insert(d, id, s, rows[start:end])
		if err != nil {
			return err
		}
		if _, err := ex.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}
