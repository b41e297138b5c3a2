package docx

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/citeflex/citeflex/internal/models"
	"github.com/citeflex/citeflex/internal/resultlog"
)

func partForKind(kind models.NoteKind) (path, elementName, refStyle, refElement string) {
	if kind == models.NoteKindFootnote {
		return pathFootnotes, "footnote", "FootnoteReference", "footnoteRef"
	}
	return pathEndnotes, "endnote", "EndnoteReference", "endnoteRef"
}

// ReadNotes returns every content note (ID >= 1) of the given kind, in
// document order, as RawNote records. IDs 0 and -1 are reserved system
// markers (separator / continuation-separator) and are skipped (spec.md
// §4.8, §6).
func (a *Document) ReadNotes(kind models.NoteKind) ([]models.RawNote, error) {
	path, elementName, _, _ := partForKind(kind)
	if !a.HasPart(path) {
		return nil, nil
	}

	root, err := a.part(path)
	if err != nil {
		return nil, err
	}

	container := findDescendants(root, elementName+"s")
	var notesEl *node
	if len(container) > 0 {
		notesEl = container[0]
	} else {
		notesEl = root
	}

	var out []models.RawNote
	for _, n := range findAllElements(notesEl, elementName) {
		id, ok := parseID(attr(n, "id"))
		if !ok || id < 1 {
			continue
		}
		out = append(out, models.RawNote{Kind: kind, ID: id, Text: textContent(n)})
	}
	return out, nil
}

func parseID(raw string) (int, bool) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// WriteNote rewrites the paragraph content of the note identified by kind
// and id to formatted text, preserving paragraph properties and the
// note-reference run, synthesizing one if absent (spec.md §4.8's write
// operation).
func (a *Document) WriteNote(kind models.NoteKind, id int, formatted string) error {
	path, elementName, refStyle, refElementLocal := partForKind(kind)
	if !a.HasPart(path) {
		return fmt.Errorf("%w: part %q not present for note %d", resultlog.ErrWrite, path, id)
	}

	root, err := a.part(path)
	if err != nil {
		return err
	}

	container := findDescendants(root, elementName+"s")
	var notesEl *node
	if len(container) > 0 {
		notesEl = container[0]
	} else {
		notesEl = root
	}

	var target *node
	for _, n := range findAllElements(notesEl, elementName) {
		if v, ok := parseID(attr(n, "id")); ok && v == id {
			target = n
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: note id %d not found in %q", resultlog.ErrWrite, id, path)
	}

	para := findElement(target, "p")
	if para == nil {
		para = elem(nsW, "p")
		target.Children = append(target.Children, para)
	}

	pPr := findElement(para, "pPr")
	refRun := findReferenceRun(para, refElementLocal)
	if refRun == nil {
		refRun = synthesizeReferenceRun(refStyle, refElementLocal)
	}

	newChildren := make([]*node, 0, 4)
	if pPr != nil {
		newChildren = append(newChildren, pPr)
	}
	newChildren = append(newChildren, refRun)
	newChildren = append(newChildren, buildRuns(formatted)...)

	para.Children = newChildren
	return nil
}

// findReferenceRun locates the run carrying the note-reference glyph (the
// <w:endnoteRef/> or <w:footnoteRef/> element), preserving whatever run
// properties it already has.
func findReferenceRun(para *node, refElementLocal string) *node {
	for _, r := range findAllElements(para, "r") {
		if len(findDescendants(r, refElementLocal)) > 0 {
			return r
		}
	}
	return nil
}

// synthesizeReferenceRun builds a canonical note-reference run when the
// source note lacked one.
func synthesizeReferenceRun(refStyle, refElementLocal string) *node {
	rPr := elem(nsW, "rPr")
	rStyle := elem(nsW, "rStyle")
	setAttr(rStyle, nsW, "val", refStyle)
	rPr.Children = append(rPr.Children, rStyle)

	run := elem(nsW, "r")
	run.Children = append(run.Children, rPr, elem(nsW, refElementLocal))
	return run
}

// buildRuns splits a formatter's restricted pseudo-markup ("plain text with
// <i>...</i> marking italic spans") into a sequence of plain and italic
// runs, one text node per run with whitespace preservation enabled (spec.md
// §4.8 step 5).
func buildRuns(formatted string) []*node {
	var runs []*node
	remaining := formatted

	for {
		start := strings.Index(remaining, "<i>")
		if start < 0 {
			if remaining != "" {
				runs = append(runs, plainRun(remaining))
			}
			break
		}
		if start > 0 {
			runs = append(runs, plainRun(remaining[:start]))
		}
		remaining = remaining[start+len("<i>"):]

		end := strings.Index(remaining, "</i>")
		if end < 0 {
			// Unterminated italic marker: treat the rest as plain text
			// rather than silently dropping content.
			runs = append(runs, plainRun(remaining))
			break
		}
		runs = append(runs, italicRun(remaining[:end]))
		remaining = remaining[end+len("</i>"):]
	}

	return runs
}

func plainRun(text string) *node {
	run := elem(nsW, "r")
	run.Children = append(run.Children, textRunChild(text))
	return run
}

func italicRun(text string) *node {
	rPr := elem(nsW, "rPr")
	rPr.Children = append(rPr.Children, elem(nsW, "i"))

	run := elem(nsW, "r")
	run.Children = append(run.Children, rPr, textRunChild(text))
	return run
}

func textRunChild(text string) *node {
	t := elem(nsW, "t", xml.Attr{Name: xml.Name{Space: "http://www.w3.org/XML/1998/namespace", Local: "space"}, Value: "preserve"})
	t.Children = append(t.Children, textNode(text))
	return t
}
