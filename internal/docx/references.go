package docx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/citeflex/citeflex/internal/formatter"
	"github.com/citeflex/citeflex/internal/resultlog"
)

// headingPattern recognizes the three reference-list headings spec.md §6
// names, case-insensitively, trimmed.
var headingPattern = regexp.MustCompile(`(?i)^\s*(References(\s+Cited)?|Bibliography)\s*$`)

// SpliceReferences replaces (or appends) the document body's reference
// list: it scans body paragraphs for the first heading matching one of
// the recognized forms, deletes from there to the end while keeping the
// trailing section-properties element, then inserts a heading paragraph
// plus one paragraph per entry (spec.md §4.8's reference-list splice).
func (a *Document) SpliceReferences(style string, entries []string) error {
	if !a.HasPart(pathDocument) {
		return fmt.Errorf("%w: document part not present", resultlog.ErrWrite)
	}

	root, err := a.part(pathDocument)
	if err != nil {
		return err
	}

	body := firstDescendant(root, "body")
	if body == nil {
		return fmt.Errorf("%w: no body element in document part", resultlog.ErrWrite)
	}

	paragraphs := findAllElements(body, "p")

	headingIdx := -1
	for i, p := range paragraphs {
		if headingPattern.MatchString(strings.TrimSpace(textContent(p))) {
			headingIdx = i
			break
		}
	}

	sectPr := findElement(body, "sectPr")

	var kept []*node
	for _, c := range body.Children {
		if isText(c) {
			kept = append(kept, c)
			continue
		}
		if c.Name.Local == "sectPr" {
			continue
		}
		if c.Name.Local == "p" {
			idx := paragraphIndex(paragraphs, c)
			if headingIdx >= 0 && idx >= headingIdx {
				continue
			}
		}
		kept = append(kept, c)
	}

	heading := elem(nsW, "p")
	headingPPr := elem(nsW, "pPr")
	headingStyle := elem(nsW, "pStyle")
	setAttr(headingStyle, nsW, "val", "Heading1")
	headingPPr.Children = append(headingPPr.Children, headingStyle)
	heading.Children = append(heading.Children, headingPPr, plainRun(formatter.HeadingFor(style)))
	kept = append(kept, heading)

	for _, e := range entries {
		p := elem(nsW, "p")
		p.Children = buildRuns(e)
		kept = append(kept, p)
	}

	if sectPr != nil {
		kept = append(kept, sectPr)
	}

	body.Children = kept
	return nil
}

func paragraphIndex(paragraphs []*node, target *node) int {
	for i, p := range paragraphs {
		if p == target {
			return i
		}
	}
	return -1
}

// firstDescendant returns the first element named local found anywhere
// beneath n (including n's own subtree), or nil.
func firstDescendant(n *node, local string) *node {
	found := findDescendants(n, local)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}
