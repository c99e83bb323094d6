package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koustreak/ddrlens/internal/xmltree"
)

var sectionOrder = []string{
	"ExternalDataSourcesCatalog",
	"BaseTableCatalog",
	"RelationshipGraph",
	"LayoutCatalog",
	"ScriptCatalog",
	"ValueListCatalog",
}

// document renders a File element with every required subtree present;
// sections overrides the empty default of the named subtree.
func document(sections map[string]string) string {
	var sb strings.Builder
	sb.WriteString("<FMPReport><File name=\"Test.fmp12\">")
	for _, name := range sectionOrder {
		if s, ok := sections[name]; ok {
			sb.WriteString(s)
			continue
		}
		if name == "RelationshipGraph" {
			sb.WriteString("<RelationshipGraph><TableList/><RelationshipList/></RelationshipGraph>")
			continue
		}
		sb.WriteString("<" + name + "/>")
	}
	sb.WriteString("</File></FMPReport>")
	return sb.String()
}

func load(t *testing.T, doc string) xmltree.Node {
	t.Helper()
	file, err := xmltree.LoadBytes([]byte(doc))
	require.NoError(t, err)
	return file
}

func build(t *testing.T, sections map[string]string) *Catalog {
	t.Helper()
	cat, err := New(load(t, document(sections)))
	require.NoError(t, err)
	return cat
}

func buildFixture(t *testing.T) *Catalog {
	t.Helper()
	file, err := xmltree.LoadFile("testdata/orders.xml")
	require.NoError(t, err)
	cat, err := New(file)
	require.NoError(t, err)
	return cat
}

// column collects one column of t as strings.
func column(t *Table, col string) []string {
	var out []string
	t.Each(func(r RowRef) { out = append(out, r.Str(col)) })
	return out
}
