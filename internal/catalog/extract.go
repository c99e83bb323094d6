package catalog

import (
	"github.com/koustreak/ddrlens/internal/errs"
	"github.com/koustreak/ddrlens/internal/xmltree"
)

// recordSets is what one extractor produces: table name → records.
type recordSets map[string][]Record

// extractor walks one top-level subtree of the File element.
type extractor struct {
	name string
	run  func(file xmltree.Node, sk *skips) (recordSets, error)
}

// skip is one row left out because an optional part was absent.
type skip struct {
	reason string
	ctx    Record
}

// skips collects the rows an extractor tolerated and dropped.
type skips []skip

func (s *skips) add(reason string, ctx Record) {
	*s = append(*s, skip{reason: reason, ctx: ctx})
}

// extractors run in this order; none reads another's output.
var extractors = []extractor{
	{name: "external_data_sources", run: extractFiles},
	{name: "base_tables", run: extractBaseTables},
	{name: "relationship_graph", run: extractRelationshipGraph},
	{name: "layouts", run: extractLayouts},
	{name: "scripts", run: extractScripts},
	{name: "value_lists", run: extractValueLists},
}

// mustChild resolves a node the export format guarantees.
func mustChild(n xmltree.Node, path string) (xmltree.Node, error) {
	c, ok := n.Child(path)
	if !ok {
		return nil, errs.Newf(errs.ErrKindStructural, "%s/%s not found", n.Tag(), path)
	}
	return c, nil
}

// topLevel reports whether n sits directly under the catalog root or a group.
func topLevel(n xmltree.Node, catalogTag string) bool {
	p, ok := n.Parent()
	if !ok {
		return false
	}
	return p.Tag() == catalogTag || p.Tag() == "Group"
}

// extractFiles reads File/ExternalDataSourcesCatalog/FileReference.
func extractFiles(file xmltree.Node, _ *skips) (recordSets, error) {
	cat, err := mustChild(file, "ExternalDataSourcesCatalog")
	if err != nil {
		return nil, err
	}

	var files []Record
	for _, ref := range cat.Children("FileReference") {
		files = append(files, Build(ref, KindFile))
	}
	return recordSets{TableFiles: files}, nil
}
