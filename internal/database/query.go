package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/ddrlens/internal/catalog"
	"github.com/koustreak/ddrlens/internal/errs"
)

// Dialect controls identifier quoting, placeholders and column types.
type Dialect int

const (
	// DialectPostgres uses "ident" and $1, $2, … placeholders.
	DialectPostgres Dialect = iota

	// DialectMySQL uses `ident` and ? placeholders.
	DialectMySQL

	// DialectSQLite uses "ident" and ? placeholders.
	DialectSQLite
)

// maxParams is the lowest bind-parameter limit across the engines
// (sqlite's default SQLITE_MAX_VARIABLE_NUMBER before 3.32).
const maxParams = 999

// Ident names a table, optionally qualified by a schema.
type Ident struct {
	Schema string
	Name   string
}

// String is the unquoted dotted form, for logs.
func (id Ident) String() string {
	if id.Schema == "" {
		return id.Name
	}
	return id.Schema + "." + id.Name
}

// CreateTable returns the CREATE TABLE statement for s under id. Integer
// columns map to BIGINT (INTEGER on sqlite), text to TEXT; non-nullable
// columns are NOT NULL.
func CreateTable(d Dialect, id Ident, s *catalog.Schema) string {
	defs := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		def := d.quote(c.Name) + " " + d.columnType(c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.qualify(id), strings.Join(defs, ", "))
}

// DropTable returns a DROP TABLE IF EXISTS statement for id.
func DropTable(d Dialect, id Ident) string {
	return "DROP TABLE IF EXISTS " + d.qualify(id)
}

// CreateSchema returns a CREATE SCHEMA IF NOT EXISTS statement. Only
// postgres has schemas.
func CreateSchema(d Dialect, schema string) (string, error) {
	if d != DialectPostgres {
		return "", errs.Newf(errs.ErrKindInvalidInput, "dialect %s has no schemas", d)
	}
	return "CREATE SCHEMA IF NOT EXISTS " + d.quote(schema), nil
}

// Insert builds one parameterized multi-row INSERT for rows under id.
// Values are never interpolated into the SQL string.
func Insert(d Dialect, id Ident, s *catalog.Schema, rows [][]any) (string, []any, error) {
	if len(rows) == 0 {
		return "", nil, errs.New(errs.ErrKindInvalidInput, "insert needs at least one row")
	}
	ncols := len(s.Columns)
	if ncols*len(rows) > maxParams {
		return "", nil, errs.Newf(errs.ErrKindInvalidInput,
			"insert of %d rows x %d columns exceeds %d parameters", len(rows), ncols, maxParams)
	}

	cols := make([]string, ncols)
	for i, c := range s.Columns {
		cols[i] = d.quote(c.Name)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.qualify(id))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, ncols*len(rows))
	argIdx := 1
	for r, row := range rows {
		if len(row) != ncols {
			return "", nil, errs.Newf(errs.ErrKindInvalidInput,
				"row %d has %d values, want %d", r, len(row), ncols)
		}
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c, v := range row {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.placeholder(argIdx))
			args = append(args, v)
			argIdx++
		}
		sb.WriteByte(')')
	}

	return sb.String(), args, nil
}

// BatchRows is the number of rows per Insert for s, capped by batch and by
// the parameter limit.
func BatchRows(s *catalog.Schema, batch int) int {
	limit := maxParams / max(len(s.Columns), 1)
	if batch <= 0 || batch > limit {
		return limit
	}
	return batch
}

func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// placeholder returns the parameter placeholder for the dialect.
// Postgres: $1, $2, …   MySQL and SQLite: ? (index is ignored)
func (d Dialect) placeholder(idx int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", idx)
	}
	return "?"
}

// quote wraps an identifier, doubling any embedded quote character.
func (d Dialect) quote(name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d Dialect) qualify(id Ident) string {
	if id.Schema == "" {
		return d.quote(id.Name)
	}
	return d.quote(id.Schema) + "." + d.quote(id.Name)
}

func (d Dialect) columnType(t catalog.ColumnType) string {
	if t == catalog.Int {
		if d == DialectSQLite {
			return "INTEGER"
		}
		return "BIGINT"
	}
	return "TEXT"
}
