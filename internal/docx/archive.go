package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/citeflex/citeflex/internal/resultlog"
)

const (
	nsW             = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR             = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"

	relTypeHyperlink = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"

	pathDocument = "word/document.xml"
	pathEndnotes = "word/endnotes.xml"
	pathFootnotes = "word/footnotes.xml"

	pathDocumentRels = "word/_rels/document.xml.rels"
	pathEndnotesRels = "word/_rels/endnotes.xml.rels"
	pathFootnotesRels = "word/_rels/footnotes.xml.rels"
)

// Document holds every part of a zipped word-processing document. Parts the
// mutator understands (document/endnotes/footnotes and their relationship
// sidecars) are parsed into node trees on first access and re-serialized
// by Bytes; every other part is carried through unmodified as raw bytes.
type Document struct {
	order []string // original zip entry order, for stable repackaging
	raw   map[string][]byte

	parsed map[string]*node // lazily populated parsed parts, keyed by path
}

// Open reads a zip-packaged document into an Document. It does not parse any
// XML part until that part is actually requested.
func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening archive: %v", resultlog.ErrPackaging, err)
	}

	a := &Document{raw: make(map[string][]byte), parsed: make(map[string]*node)}

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: reading part %q: %v", resultlog.ErrPackaging, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading part %q: %v", resultlog.ErrPackaging, f.Name, err)
		}
		a.order = append(a.order, f.Name)
		a.raw[f.Name] = content
	}

	return a, nil
}

// HasPart reports whether the archive contains the named part.
func (a *Document) HasPart(path string) bool {
	_, ok := a.raw[path]
	return ok
}

// part returns the parsed node tree for path, parsing and caching it on
// first access.
func (a *Document) part(path string) (*node, error) {
	if n, ok := a.parsed[path]; ok {
		return n, nil
	}
	raw, ok := a.raw[path]
	if !ok {
		return nil, fmt.Errorf("%w: part %q not present", resultlog.ErrPackaging, path)
	}
	n, err := parseXML(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: part %q: %v", resultlog.ErrPackaging, path, err)
	}
	a.parsed[path] = n
	return n, nil
}

// ensureRelsPart returns path's parsed tree, creating a minimal empty
// relationships part if it does not yet exist in the archive (a document
// with no hyperlinks yet may not ship a _rels sidecar for every part).
func (a *Document) ensureRelsPart(path string) (*node, error) {
	if a.HasPart(path) {
		return a.part(path)
	}
	relationships := elem(nsRelationships, "Relationships")
	relationships.Attrs = append(relationships.Attrs, xml.Attr{
		Name:  xml.Name{Local: "xmlns"},
		Value: nsRelationships,
	})
	root := &node{Children: []*node{relationships}}
	a.parsed[path] = root
	a.order = append(a.order, path)
	return root, nil
}

// Bytes serializes every parsed (and therefore possibly mutated) part back
// to XML and rewrites the archive, preserving the original entry order and
// every untouched part's raw bytes exactly (spec.md §4.8's packaging
// step).
func (a *Document) Bytes() ([]byte, error) {
	for path, n := range a.parsed {
		out, err := serializeXML(n)
		if err != nil {
			return nil, fmt.Errorf("%w: serializing part %q: %v", resultlog.ErrWrite, path, err)
		}
		a.raw[path] = out
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	names := append([]string(nil), a.order...)
	seen := make(map[string]bool, len(names))
	ordered := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		ordered = append(ordered, n)
	}

	for _, name := range ordered {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("%w: creating entry %q: %v", resultlog.ErrPackaging, name, err)
		}
		if _, err := w.Write(a.raw[name]); err != nil {
			return nil, fmt.Errorf("%w: writing entry %q: %v", resultlog.ErrPackaging, name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing archive: %v", resultlog.ErrPackaging, err)
	}

	return buf.Bytes(), nil
}
