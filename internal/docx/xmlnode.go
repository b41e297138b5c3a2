// Package docx implements the document mutator: reading and rewriting the
// endnote, footnote, and body XML parts of a zipped word-processing
// archive, plus their relationship sidecars, without requiring a schema
// library for a document format no example repo in citeflex's corpus
// touches (see DESIGN.md for why this is the one package built directly
// on encoding/xml and archive/zip rather than a third-party dependency).
package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// node is a generic, order-preserving XML tree element. Unlike unmarshaling
// into fixed Go structs, this preserves every attribute and every unknown
// child element exactly as read, which is required here: a mutator must
// round-trip markup it does not understand (drawing objects, bookmarks,
// revision marks) untouched.
type node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*node

	// text is non-empty only for a character-data leaf; such a node has
	// a zero Name and no children.
	text string
}

func isText(n *node) bool { return n.Name.Local == "" }

// parseXML decodes raw into a synthetic root node holding the document's
// top-level element and any top-level character data as children. The
// original XML declaration, comments, and processing instructions are not
// kept; serializeXML writes a canonical declaration of its own.
func parseXML(raw []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	root := &node{}
	stack := []*node{root}

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("docx: parsing xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{Name: t.Name, Attrs: append([]xml.Attr(nil), t.Attr...)}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, n)
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &node{text: string(t)})
		}
	}

	return root, nil
}

// serializeXML re-encodes n's single top-level child (the document
// element) preceded by a canonical XML declaration.
func serializeXML(root *node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	for _, child := range root.Children {
		if err := encodeNode(enc, child); err != nil {
			return nil, fmt.Errorf("docx: encoding xml: %w", err)
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("docx: flushing xml encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// nsPrefixes maps the namespace URIs this package knows about back to the
// conventional prefix Word documents use for them. encoding/xml's token-level
// encoder has no notion of an ancestor's xmlns declarations: handed a
// Name.Space it hasn't seen bound by an attribute on the very same element,
// it invents a fresh "xmlns=" declaration on every element that carries one.
// Since every part's root element already carries the real xmlns:w /
// xmlns:r declarations (copied through verbatim, as we never touch the
// root's own attributes), resolving known namespaces to their prefix here
// instead keeps the output looking like the source document.
var nsPrefixes = map[string]string{
	nsW:             "w",
	nsR:             "r",
	"http://www.w3.org/XML/1998/namespace": "xml",
	nsRelationships: "",
}

// resolveName flattens a namespace-qualified name into the single
// prefixed local name Word's own writer would use, so the encoder emits
// "w:p" rather than inventing a per-element xmlns declaration.
func resolveName(n xml.Name) xml.Name {
	switch n.Space {
	case "":
		return n
	case "xmlns":
		if n.Local == "" {
			return xml.Name{Local: "xmlns"}
		}
		return xml.Name{Local: "xmlns:" + n.Local}
	}
	if prefix, ok := nsPrefixes[n.Space]; ok {
		if prefix == "" {
			return xml.Name{Local: n.Local}
		}
		return xml.Name{Local: prefix + ":" + n.Local}
	}
	return n
}

func encodeNode(enc *xml.Encoder, n *node) error {
	if isText(n) {
		return enc.EncodeToken(xml.CharData([]byte(n.text)))
	}

	name := resolveName(n.Name)
	attrs := make([]xml.Attr, len(n.Attrs))
	for i, a := range n.Attrs {
		attrs[i] = xml.Attr{Name: resolveName(a.Name), Value: a.Value}
	}

	start := xml.StartElement{Name: name, Attr: attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := encodeNode(enc, child); err != nil {
			return err
		}
	}
	return enc.EncodeToken(xml.EndElement{Name: name})
}

// findElement returns the first direct child element named local in any
// namespace, or nil.
func findElement(n *node, local string) *node {
	for _, c := range n.Children {
		if !isText(c) && c.Name.Local == local {
			return c
		}
	}
	return nil
}

// findAllElements returns every direct child element named local.
func findAllElements(n *node, local string) []*node {
	var out []*node
	for _, c := range n.Children {
		if !isText(c) && c.Name.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// findDescendants returns every element named local anywhere beneath n,
// in document order.
func findDescendants(n *node, local string) []*node {
	var out []*node
	var walk func(*node)
	walk = func(cur *node) {
		for _, c := range cur.Children {
			if isText(c) {
				continue
			}
			if c.Name.Local == local {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// textContent concatenates every descendant text node's character data, in
// document order.
func textContent(n *node) string {
	var b bytes.Buffer
	var walk func(*node)
	walk = func(cur *node) {
		if isText(cur) {
			b.WriteString(cur.text)
			return
		}
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// attr returns the value of the attribute named local in any namespace, or
// "" if absent.
func attr(n *node, local string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// setAttr sets (or replaces) the attribute named local, in the given
// namespace, to value.
func setAttr(n *node, space, local, value string) {
	for i, a := range n.Attrs {
		if a.Name.Local == local {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Space: space, Local: local}, Value: value})
}

func elem(space, local string, attrs ...xml.Attr) *node {
	return &node{Name: xml.Name{Space: space, Local: local}, Attrs: attrs}
}

func textNode(s string) *node {
	return &node{text: s}
}
