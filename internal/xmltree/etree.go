package xmltree

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/koustreak/ddrlens/internal/errs"
)

// RootTag is the tag of the element every catalog path is relative to.
const RootTag = "File"

// element adapts *etree.Element to Node.
type element struct {
	el *etree.Element
}

// Wrap exposes an already-parsed etree element as a Node.
func Wrap(el *etree.Element) Node {
	return element{el: el}
}

func wrapAll(els []*etree.Element) []Node {
	nodes := make([]Node, len(els))
	for i, el := range els {
		nodes[i] = element{el: el}
	}
	return nodes
}

func (e element) Tag() string { return e.el.Tag }

func (e element) Child(path string) (Node, bool) {
	found := e.el.FindElement(path)
	if found == nil {
		return nil, false
	}
	return element{el: found}, true
}

func (e element) Children(path string) []Node {
	return wrapAll(e.el.FindElements(path))
}

func (e element) Elements() []Node {
	return wrapAll(e.el.ChildElements())
}

func (e element) Descendants(tag string) []Node {
	var out []Node
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if child.Tag == tag {
				out = append(out, element{el: child})
			}
			walk(child)
		}
	}
	walk(e.el)
	return out
}

func (e element) Attrs() map[string]string {
	attrs := make(map[string]string, len(e.el.Attr))
	for _, a := range e.el.Attr {
		attrs[a.Key] = a.Value
	}
	return attrs
}

func (e element) Attr(key string) (string, bool) {
	a := e.el.SelectAttr(key)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

func (e element) Parent() (Node, bool) {
	p := e.el.Parent()
	// the document node itself is an element with an empty tag
	if p == nil || p.Tag == "" {
		return nil, false
	}
	return element{el: p}, true
}

func (e element) Text() (string, bool) {
	text := e.el.Text()
	if text == "" {
		return "", false
	}
	return text, true
}

// --- loading ---

// Load parses a whole schema export and returns its File element.
//
// DDR exports are usually UTF-16 with a byte-order mark; the stream is
// transcoded to UTF-8 before parsing. Documents whose root is File are
// accepted as-is, otherwise the root's File child is returned (the usual
// FMPReport wrapper).
func Load(r io.Reader) (Node, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader

	decoded := transform.NewReader(r, unicode.BOMOverride(transform.Nop))
	if _, err := doc.ReadFrom(decoded); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to parse XML document", err)
	}
	return FileElement(doc)
}

// LoadBytes parses an in-memory export.
func LoadBytes(data []byte) (Node, error) {
	return Load(bytes.NewReader(data))
}

// LoadFile parses the export at path.
func LoadFile(path string) (Node, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "export file not found", err)
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to open export file", err)
	}
	defer f.Close()
	return Load(f)
}

// FileElement locates the File element of a parsed document.
func FileElement(doc *etree.Document) (Node, error) {
	root := doc.Root()
	if root == nil {
		return nil, errs.New(errs.ErrKindStructural, "document has no root element")
	}
	if root.Tag == RootTag {
		return element{el: root}, nil
	}
	file := root.FindElement(RootTag)
	if file == nil {
		return nil, errs.Newf(errs.ErrKindStructural, "%s element not found under <%s>", RootTag, root.Tag)
	}
	return element{el: file}, nil
}

// charsetReader is consulted by encoding/xml for any declared encoding other
// than UTF-8. UTF-16 input has already been transcoded by BOMOverride, so it
// passes through untouched.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	if strings.HasPrefix(strings.ToLower(label), "utf-16") {
		return input, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "unsupported document encoding "+label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
