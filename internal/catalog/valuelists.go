package catalog

import (
	"github.com/koustreak/ddrlens/internal/errs"
	"github.com/koustreak/ddrlens/internal/xmltree"
)

// valueListFromField is the source kind of lists built from field contents.
const valueListFromField = "Field"

// extractValueLists reads File/ValueListCatalog. The first child of each
// value list describes its source; field-based lists also yield one row per
// Field element, tagged with its parent's tag (first or second field role).
func extractValueLists(file xmltree.Node, _ *skips) (recordSets, error) {
	cat, err := mustChild(file, "ValueListCatalog")
	if err != nil {
		return nil, err
	}

	var lists, fields []Record
	for _, vl := range cat.Children("ValueList") {
		children := vl.Elements()
		if len(children) == 0 {
			name, _ := vl.Attr("name")
			return nil, errs.Newf(errs.ErrKindStructural, "value list %q has no source", name)
		}
		list := Build(children[0], KindValueListSource).Inherit(Build(vl, KindValueList))
		lists = append(lists, list)

		if list["value"] != valueListFromField {
			continue
		}
		for _, f := range vl.Descendants("Field") {
			role := ""
			if p, ok := f.Parent(); ok {
				role = p.Tag()
			}
			fields = append(fields, Build(f, KindValueListField).With("type", role).Inherit(list))
		}
	}

	return recordSets{
		TableValueLists:      lists,
		TableValueListFields: fields,
	}, nil
}
