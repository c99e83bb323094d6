package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/koustreak/ddrlens/internal/errs"
)

// Table is an immutable relational table: a schema plus rows whose values
// are string, int64 or nil (absent optional value), positioned by column.
type Table struct {
	schema *Schema
	rows   [][]any
}

// NewTable creates an empty table with the given schema.
func NewTable(s *Schema) *Table {
	return &Table{schema: s, rows: [][]any{}}
}

func (t *Table) Name() string        { return t.schema.Name }
func (t *Table) Description() string { return t.schema.Description }
func (t *Table) Schema() *Schema     { return t.schema }
func (t *Table) Columns() []Column   { return t.schema.Columns }
func (t *Table) Len() int            { return len(t.rows) }

// Row returns a copy of row i.
func (t *Table) Row(i int) []any {
	return slices.Clone(t.rows[i])
}

// Rows returns a copy of every row.
func (t *Table) Rows() [][]any {
	out := make([][]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// At returns a read handle for row i.
func (t *Table) At(i int) RowRef {
	return RowRef{t: t, i: i}
}

// Each calls fn for every row in order.
func (t *Table) Each(fn func(r RowRef)) {
	for i := range t.rows {
		fn(RowRef{t: t, i: i})
	}
}

// RowRef reads one row by column name.
type RowRef struct {
	t *Table
	i int
}

// Value returns the raw value of col; nil when the column is unknown or null.
func (r RowRef) Value(col string) any {
	idx := r.t.schema.Index(col)
	if idx < 0 {
		return nil
	}
	return r.t.rows[r.i][idx]
}

// Str returns col as a string; integers are formatted, null is "".
func (r RowRef) Str(col string) string {
	switch v := r.Value(col).(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// Int returns col as an int64; ok is false for null or text columns.
func (r RowRef) Int(col string) (int64, bool) {
	v, ok := r.Value(col).(int64)
	return v, ok
}

// Where returns a new table with the rows for which keep is true.
func (t *Table) Where(keep func(r RowRef) bool) *Table {
	out := NewTable(t.schema)
	for i, row := range t.rows {
		if keep(RowRef{t: t, i: i}) {
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// Distinct keeps the first row for every distinct combination of the key
// columns. Applying it twice yields the same table as applying it once.
func (t *Table) Distinct(keys ...string) *Table {
	idx := t.indexes(keys)
	seen := make(map[string]struct{}, len(t.rows))
	out := NewTable(t.schema)
	for _, row := range t.rows {
		k := rowKey(row, idx)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out.rows = append(out.rows, row)
	}
	return out
}

// CountDistinct groups rows by the key columns and counts the distinct
// tuples of the count columns in each group; rows with a null count column
// are not counted. The result has the key columns followed by an int column
// named as; groups are sorted by key.
func (t *Table) CountDistinct(keys []string, as string, count ...string) *Table {
	idx := t.indexes(keys)
	countIdx := t.indexes(count)

	cols := make([]Column, 0, len(keys)+1)
	for _, i := range idx {
		cols = append(cols, t.schema.Columns[i])
	}
	cols = append(cols, intCol(as))
	out := NewTable(&Schema{
		Name:        t.schema.Name + "_by_" + strings.Join(keys, "_"),
		Description: t.schema.Description + " (grouped)",
		Columns:     cols,
	})

	type group struct {
		key    []any
		values map[string]struct{}
	}
	groups := map[string]*group{}
	var order []string
	for _, row := range t.rows {
		k := rowKey(row, idx)
		g, ok := groups[k]
		if !ok {
			key := make([]any, len(idx))
			for j, i := range idx {
				key[j] = row[i]
			}
			g = &group{key: key, values: map[string]struct{}{}}
			groups[k] = g
			order = append(order, k)
		}
		if len(countIdx) > 0 && !hasNull(row, countIdx) {
			g.values[rowKey(row, countIdx)] = struct{}{}
		}
	}

	slices.SortFunc(order, func(a, b string) int {
		return compareRows(groups[a].key, groups[b].key)
	})
	for _, k := range order {
		g := groups[k]
		out.rows = append(out.rows, append(slices.Clone(g.key), int64(len(g.values))))
	}
	return out
}

func hasNull(row []any, idx []int) bool {
	for _, i := range idx {
		if row[i] == nil {
			return true
		}
	}
	return false
}

func (t *Table) indexes(cols []string) []int {
	idx := make([]int, 0, len(cols))
	for _, c := range cols {
		if i := t.schema.Index(c); i >= 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

// rowKey encodes the selected values so that null, "" and 0 never collide.
func rowKey(row []any, idx []int) string {
	var sb strings.Builder
	for _, i := range idx {
		switch v := row[i].(type) {
		case nil:
			sb.WriteString("n;")
		case int64:
			sb.WriteString("i")
			sb.WriteString(strconv.FormatInt(v, 10))
			sb.WriteByte(';')
		case string:
			sb.WriteString("s")
			sb.WriteString(strconv.Quote(v))
			sb.WriteByte(';')
		}
	}
	return sb.String()
}

func compareRows(a, b []any) int {
	for i := range a {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if x, ok := a.(int64); ok {
		if y, ok := b.(int64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// --- assembly ---

// CoercionError reports an identifier or count value that is not an integer.
// It unwraps to an *errs.Error of kind ErrKindTypeCoercion.
type CoercionError struct {
	Table  string
	Column string
	Row    int
	Value  string
	cause  error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("table %s, column %s, row %d: %q is not an integer", e.Table, e.Column, e.Row, e.Value)
}

func (e *CoercionError) Unwrap() error {
	return errs.Wrap(errs.ErrKindTypeCoercion, "identifier column coercion failed", e.cause)
}

// assemble turns a record set into the named table: canonical column order,
// integer coercion, and null for absent optional values. Attributes outside
// the schema are dropped.
func assemble(name string, records []Record) (*Table, error) {
	s, ok := SchemaFor(name)
	if !ok {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown table %q", name)
	}

	t := NewTable(s)
	t.rows = make([][]any, 0, len(records))
	for n, rec := range records {
		row := make([]any, len(s.Columns))
		for i, col := range s.Columns {
			raw, present := rec[col.Name]
			switch col.Type {
			case Int:
				raw = strings.TrimSpace(raw)
				if raw == "" && col.Nullable {
					continue
				}
				v, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return nil, &CoercionError{Table: name, Column: col.Name, Row: n, Value: raw, cause: err}
				}
				row[i] = v
			default:
				if (!present || raw == "") && col.Nullable {
					continue
				}
				if !present {
					return nil, errs.Newf(errs.ErrKindStructural,
						"table %s, row %d: required attribute %s is missing", name, n, col.Name)
				}
				row[i] = raw
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}
