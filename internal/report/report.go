// Package report renders catalog tables and impact reports as aligned
// plain text for terminals.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/koustreak/ddrlens/internal/catalog"
)

// nullCell is how absent values are printed.
const nullCell = "-"

func newWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// Describe prints every table name with its description.
func Describe(w io.Writer, descs []catalog.Description) error {
	tw := newWriter(w)
	fmt.Fprintln(tw, "TABLE\tDESCRIPTION")
	for _, d := range descs {
		fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Description)
	}
	return tw.Flush()
}

// Counts prints the row count of each table.
func Counts(w io.Writer, tables []*catalog.Table) error {
	tw := newWriter(w)
	fmt.Fprintln(tw, "TABLE\tROWS")
	for _, t := range tables {
		fmt.Fprintf(tw, "%s\t%d\n", t.Name(), t.Len())
	}
	return tw.Flush()
}

// Table prints t with a header row; limit caps the printed rows (0 prints
// everything).
func Table(w io.Writer, t *catalog.Table, limit int) error {
	tw := newWriter(w)
	fmt.Fprintln(tw, strings.Join(t.Schema().ColumnNames(), "\t"))

	rows := t.Rows()
	shown := len(rows)
	if limit > 0 && limit < shown {
		shown = limit
	}
	cells := make([]string, len(t.Columns()))
	for _, row := range rows[:shown] {
		for i, v := range row {
			cells[i] = cell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if shown < len(rows) {
		_, err := fmt.Fprintf(w, "... %d more rows\n", len(rows)-shown)
		return err
	}
	return nil
}

// Impact prints the five sections of an impact report.
func Impact(w io.Writer, r *catalog.ImpactReport) error {
	if _, err := fmt.Fprintf(w, "Impact of external file %q\n", r.File); err != nil {
		return err
	}
	if r.Empty() {
		_, err := fmt.Fprintln(w, "\nNo table occurrence refers to this file.")
		return err
	}

	sections := []struct {
		title string
		table *catalog.Table
	}{
		{"1. Relationship tables", r.Tables},
		{"2. Relationship join Fields", r.FieldJoins},
		{"3. Calculated Fields", r.CalculatedFields},
		{"4. Layout Fields grouped", r.LayoutFields},
		{"5. Script Fields", r.ScriptFields},
	}
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "\n%s (%d)\n", s.title, s.table.Len()); err != nil {
			return err
		}
		if s.table.Len() == 0 {
			continue
		}
		if err := Table(w, s.table, 0); err != nil {
			return err
		}
	}
	return nil
}

func cell(v any) string {
	switch x := v.(type) {
	case string:
		if x == "" {
			return `""`
		}
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return nullCell
	}
}
