package catalog

// ImpactReport lists everything that touches the table occurrences of one
// external file.
type ImpactReport struct {
	// File is the external file name the report was requested for.
	File string

	// Tables are the table occurrences whose external_file_name is File.
	Tables *Table

	// FieldJoins are relationship predicates on those occurrences.
	FieldJoins *Table

	// CalculatedFields are calculation/summary references into them.
	CalculatedFields *Table

	// LayoutFields counts, per (field_table_name, field_name), the layouts
	// placing the field (column count_lays).
	LayoutFields *Table

	// ScriptFields counts, per (table_name, field_name, script_name), the
	// steps referencing the field (column step_count). Steps are told apart
	// by (script_id, step_id), so same-named scripts never merge.
	ScriptFields *Table
}

// ImpactReport filters the built tables down to what depends on the table
// occurrences of the external file named file. It reads only finished
// tables; nothing is re-extracted.
func (c *Catalog) ImpactReport(file string) *ImpactReport {
	occurrences := c.TableOccurrences().Where(func(r RowRef) bool {
		return r.Value("external_file_name") != nil && r.Str("external_file_name") == file
	})

	names := make(map[string]struct{}, occurrences.Len())
	occurrences.Each(func(r RowRef) {
		names[r.Str("table_name")] = struct{}{}
	})
	in := func(col string) func(RowRef) bool {
		return func(r RowRef) bool {
			if r.Value(col) == nil {
				return false
			}
			_, ok := names[r.Str(col)]
			return ok
		}
	}

	return &ImpactReport{
		File:             file,
		Tables:           occurrences,
		FieldJoins:       c.FieldJoins().Where(in("table_name")),
		CalculatedFields: c.CalculatedFields().Where(in("ref_table_name")),
		LayoutFields: c.LayoutFields().Where(in("field_table_name")).
			CountDistinct([]string{"field_table_name", "field_name"}, "count_lays", "layout_id"),
		ScriptFields: c.ScriptFields().Where(in("table_name")).
			CountDistinct([]string{"table_name", "field_name", "script_name"}, "step_count", "script_id", "step_id"),
	}
}

// Empty reports whether nothing in the file references the external file.
func (r *ImpactReport) Empty() bool {
	return r.Tables.Len() == 0
}
