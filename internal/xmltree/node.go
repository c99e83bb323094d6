// Package xmltree is the tree-query capability the catalog extractors run on.
//
// The extractors never see the XML library: they depend on Node, which offers
// child-by-path, children-by-path, descendants-by-tag, attribute access,
// parent and text. The etree-backed implementation lives in this package too.
//
// Usage:
//
//	file, err := xmltree.LoadFile("Orders_fmp12.xml")
//	if err != nil { ... }
//	cat, err := catalog.New(file)
package xmltree

// Node is one element of a fully materialized document tree.
type Node interface {
	// Tag returns the element's local name.
	Tag() string

	// Child returns the first element matching a slash-separated path of
	// child tags relative to this node (e.g. "SummaryInfo/SummaryField/Field").
	Child(path string) (Node, bool)

	// Children returns every element matching path, in document order.
	Children(path string) []Node

	// Elements returns the direct child elements, in document order.
	Elements() []Node

	// Descendants returns every element below this node (never the node
	// itself) whose tag equals tag, in document order.
	Descendants(tag string) []Node

	// Attrs returns a fresh copy of the element's attributes.
	Attrs() map[string]string

	// Attr returns a single attribute value.
	Attr(key string) (string, bool)

	// Parent returns the parent element; the document root has none.
	Parent() (Node, bool)

	// Text returns the element's character data; ok is false when the
	// element has no text at all.
	Text() (string, bool)
}
