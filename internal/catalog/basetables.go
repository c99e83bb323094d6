package catalog

import (
	"github.com/koustreak/ddrlens/internal/errs"
	"github.com/koustreak/ddrlens/internal/xmltree"
)

const (
	fieldTypeCalculated = "Calculated"
	fieldTypeSummary    = "Summary"
)

// calculatedRefKey identifies one calculated/summary field → target pair.
var calculatedRefKey = []string{"field_id", "base_table_id", "ref_field_id", "ref_table_name"}

// extractBaseTables reads File/BaseTableCatalog/BaseTable and its fields.
//
// Calculated fields contribute one reference per Field element found under
// their DisplayCalculation; summary fields contribute exactly one, taken
// from SummaryInfo/SummaryField/Field. Duplicates collapse at assembly.
func extractBaseTables(file xmltree.Node, _ *skips) (recordSets, error) {
	cat, err := mustChild(file, "BaseTableCatalog")
	if err != nil {
		return nil, err
	}

	var tables, fields, refs []Record
	for _, bt := range cat.Children("BaseTable") {
		table := Build(bt, KindBaseTable)
		tables = append(tables, table)

		for _, f := range bt.Children("FieldCatalog/Field") {
			field := Build(f, KindField).Inherit(table)
			fields = append(fields, field)

			switch field["fieldType"] {
			case fieldTypeCalculated:
				calc, ok := f.Child("DisplayCalculation")
				if !ok {
					continue
				}
				for _, target := range calc.Descendants("Field") {
					refs = append(refs, Build(target, KindRefField).Inherit(field))
				}
			case fieldTypeSummary:
				target, ok := f.Child("SummaryInfo/SummaryField/Field")
				if !ok {
					return nil, errs.Newf(errs.ErrKindStructural,
						"summary field %s::%s has no SummaryInfo/SummaryField/Field",
						table["base_table_name"], field["field_name"])
				}
				refs = append(refs, Build(target, KindRefField).Inherit(field))
			}
		}
	}

	return recordSets{
		TableBaseTables:       tables,
		TableFields:           fields,
		TableCalculatedFields: refs,
	}, nil
}
