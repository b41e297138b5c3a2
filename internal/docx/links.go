package docx

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// urlPattern matches a URL-shaped substring: a scheme followed by
// non-whitespace, non-bracket characters (spec.md §4.9 step 1).
var urlPattern = regexp.MustCompile(`https?://[^\s\[\]()<>]+`)

var trailingPunct = ".,;:)]'\""

// ActivateLinks scans every text run in the document, endnote, and
// footnote parts for URL-shaped substrings and wraps each in a hyperlink
// element backed by a relationship sidecar entry, skipping runs already
// inside a hyperlink (spec.md §4.9).
func (a *Document) ActivateLinks() error {
	for _, part := range []struct{ contentPath, relsPath string }{
		{pathDocument, pathDocumentRels},
		{pathEndnotes, pathEndnotesRels},
		{pathFootnotes, pathFootnotesRels},
	} {
		if !a.HasPart(part.contentPath) {
			continue
		}
		root, err := a.part(part.contentPath)
		if err != nil {
			return err
		}
		rels, err := a.ensureRelsPart(part.relsPath)
		if err != nil {
			return err
		}
		activateLinksIn(root, rels)
	}
	return nil
}

func activateLinksIn(n *node, rels *node) {
	for _, child := range n.Children {
		if isText(child) {
			continue
		}
		if child.Name.Local == "hyperlink" {
			// Already wrapped: do not double-wrap runs inside it.
			continue
		}
		if child.Name.Local == "r" {
			replaceRunWithLinks(n, child, rels)
			continue
		}
		activateLinksIn(child, rels)
	}
}

// replaceRunWithLinks checks run for URL-shaped substrings and, if found,
// replaces it in parent.Children with a before/hyperlink/after sequence.
func replaceRunWithLinks(parent *node, run *node, rels *node) {
	text := runText(run)
	matches := urlPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return
	}

	rPr := findElement(run, "rPr")

	var replacement []*node
	cursor := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		raw := text[start:end]
		trimmed := strings.TrimRight(raw, trailingPunct)
		trailing := raw[len(trimmed):]
		end -= len(trailing)

		if start > cursor {
			replacement = append(replacement, runWithText(rPr, text[cursor:start]))
		}

		rID := resolveRelationship(rels, trimmed)
		replacement = append(replacement, hyperlinkElement(rID, trimmed))

		cursor = end
	}
	if cursor < len(text) {
		replacement = append(replacement, runWithText(rPr, text[cursor:]))
	}

	spliceChild(parent, run, replacement)
}

func runText(run *node) string {
	var b strings.Builder
	for _, t := range findAllElements(run, "t") {
		b.WriteString(textContent(t))
	}
	return b.String()
}

func runWithText(rPr *node, text string) *node {
	if text == "" {
		return nil
	}
	run := elem(nsW, "r")
	if rPr != nil {
		run.Children = append(run.Children, cloneNode(rPr))
	}
	run.Children = append(run.Children, textRunChild(text))
	return run
}

// hyperlinkElement builds a <w:hyperlink r:id="..."> wrapping a run styled
// as a hyperlink, containing the URL text.
func hyperlinkElement(rID, url string) *node {
	link := elem(nsW, "hyperlink")
	setAttr(link, nsR, "id", rID)

	rPr := elem(nsW, "rPr")
	rStyle := elem(nsW, "rStyle")
	setAttr(rStyle, nsW, "val", "Hyperlink")
	rPr.Children = append(rPr.Children, rStyle)

	run := elem(nsW, "r")
	run.Children = append(run.Children, rPr, textRunChild(url))
	link.Children = append(link.Children, run)
	return link
}

// resolveRelationship finds an existing relationship entry targeting url,
// or inserts a new one with the next available rIdN, and returns its ID
// (spec.md §4.9 step 2). relsRootHolder is the synthetic top-level node
// returned by (*Document).part / ensureRelsPart, whose sole child is the
// part's actual <Relationships> root element.
func resolveRelationship(relsRootHolder *node, url string) string {
	relsRoot := findElement(relsRootHolder, "Relationships")
	if relsRoot == nil {
		relsRoot = elem(nsRelationships, "Relationships")
		relsRootHolder.Children = append(relsRootHolder.Children, relsRoot)
	}

	maxN := 0
	for _, r := range findAllElements(relsRoot, "Relationship") {
		id := attr(r, "Id")
		if n, ok := parseRelID(id); ok && n > maxN {
			maxN = n
		}
		if attr(r, "Target") == url && attr(r, "Type") == relTypeHyperlink {
			return id
		}
	}

	newID := fmt.Sprintf("rId%d", maxN+1)
	rel := elem(nsRelationships, "Relationship")
	setAttr(rel, "", "Id", newID)
	setAttr(rel, "", "Type", relTypeHyperlink)
	setAttr(rel, "", "Target", url)
	setAttr(rel, "", "TargetMode", "External")
	relsRoot.Children = append(relsRoot.Children, rel)

	return newID
}

func parseRelID(id string) (int, bool) {
	if !strings.HasPrefix(id, "rId") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, "rId"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// spliceChild replaces target within parent.Children with replacement
// (which may be empty, one, or many nodes), preserving the order of
// surrounding siblings. nil entries in replacement are skipped.
func spliceChild(parent *node, target *node, replacement []*node) {
	idx := -1
	for i, c := range parent.Children {
		if c == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	clean := replacement[:0:0]
	for _, r := range replacement {
		if r != nil {
			clean = append(clean, r)
		}
	}

	out := make([]*node, 0, len(parent.Children)+len(clean))
	out = append(out, parent.Children[:idx]...)
	out = append(out, clean...)
	out = append(out, parent.Children[idx+1:]...)
	parent.Children = out
}

// cloneNode returns a deep copy of n, so preserved run properties are not
// aliased across the runs generated from one original run.
func cloneNode(n *node) *node {
	if n == nil {
		return nil
	}
	cp := &node{Name: n.Name, text: n.text}
	cp.Attrs = append([]xml.Attr(nil), n.Attrs...)
	for _, c := range n.Children {
		cp.Children = append(cp.Children, cloneNode(c))
	}
	return cp
}
