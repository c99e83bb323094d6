package catalog

import (
	"strings"

	"github.com/koustreak/ddrlens/internal/errs"
	"github.com/koustreak/ddrlens/internal/xmltree"
)

// qualifiedSep separates table occurrence and field in a display name.
const qualifiedSep = "::"

// extractLayouts reads the top-level layouts of File/LayoutCatalog (directly
// under the catalog or a Group) and the fields placed on them. Layouts
// nested in other layouts are not cataloged.
func extractLayouts(file xmltree.Node, sk *skips) (recordSets, error) {
	cat, err := mustChild(file, "LayoutCatalog")
	if err != nil {
		return nil, err
	}

	var layouts, fields []Record
	for _, l := range cat.Descendants("Layout") {
		if !topLevel(l, "LayoutCatalog") {
			continue
		}

		table, ok := l.Child("Table")
		if !ok {
			name, _ := l.Attr("name")
			return nil, errs.Newf(errs.ErrKindStructural, "layout %q has no Table", name)
		}
		layout := Build(table, KindLayoutTable).Inherit(Build(l, KindLayout))
		layouts = append(layouts, layout)

		for _, obj := range l.Children("Object") {
			if t, _ := obj.Attr("type"); t != "Field" {
				continue
			}
			tableName, fieldName, ok := placement(obj)
			if !ok {
				sk.add("field object without a qualified name", layout)
				continue
			}
			fields = append(fields, Record{
				"field_table_name": tableName,
				"field_name":       fieldName,
			}.Inherit(layout))
		}
	}

	return recordSets{
		TableLayouts:      layouts,
		TableLayoutFields: fields,
	}, nil
}

// placement splits a field object's "Table::Field" display name. Objects
// without a name, or whose name is not qualified, are not placements.
func placement(obj xmltree.Node) (table, field string, ok bool) {
	name, found := obj.Child("FieldObj/Name")
	if !found {
		return "", "", false
	}
	text, found := name.Text()
	if !found {
		return "", "", false
	}
	table, field, ok = strings.Cut(strings.TrimSpace(text), qualifiedSep)
	if !ok || table == "" || field == "" {
		return "", "", false
	}
	return table, field, true
}
