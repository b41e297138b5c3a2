package formatter

import (
	"fmt"
	"strings"

	"github.com/citeflex/citeflex/internal/models"
)

// APAFormatter renders APA (7th ed.)-shaped citations. It is the one
// concrete style citeflex ships; the other registered style names alias
// it until a caller supplies real per-style formatters (spec.md §1: style
// formatting rules live behind this interface, not in citeflex's core).
type APAFormatter struct{}

// NewAPAFormatter returns a ready-to-use APAFormatter.
func NewAPAFormatter() *APAFormatter {
	return &APAFormatter{}
}

func (f *APAFormatter) Format(m *models.CitationMetadata) string {
	if m == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(authorList(m.Authors))
	if m.Year != "" {
		fmt.Fprintf(&b, " (%s).", m.Year)
	}
	if m.Title != "" {
		fmt.Fprintf(&b, " %s.", m.Title)
	}
	if m.Container != "" {
		fmt.Fprintf(&b, " <i>%s</i>", m.Container)
		if m.Volume != "" {
			fmt.Fprintf(&b, ", %s", m.Volume)
			if m.Issue != "" {
				fmt.Fprintf(&b, "(%s)", m.Issue)
			}
		}
		if m.Pages != "" {
			fmt.Fprintf(&b, ", %s", m.Pages)
		}
		b.WriteString(".")
	}
	if m.DOI != "" {
		fmt.Fprintf(&b, " https://doi.org/%s", m.DOI)
	} else if m.URL != "" {
		fmt.Fprintf(&b, " %s", m.URL)
	}

	return strings.TrimSpace(b.String())
}

func (f *APAFormatter) FormatShort(m *models.CitationMetadata) string {
	if m == nil {
		return ""
	}

	surname := m.FirstAuthorSurname()
	if surname == "" {
		surname = m.Title
	}

	var b strings.Builder
	b.WriteString(surname)
	if m.Year != "" {
		fmt.Fprintf(&b, ", %s", m.Year)
	}
	b.WriteString(".")
	return b.String()
}

func (f *APAFormatter) FormatIbid(pinpoint string) string {
	if pinpoint == "" {
		return "Ibid."
	}
	return fmt.Sprintf("Ibid., %s.", pinpoint)
}

// authorList renders a surname-first author slice as an APA-shaped,
// ampersand-joined list ("Bandura, A., & Walters, R. H.").
func authorList(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	default:
		return strings.Join(authors[:len(authors)-1], ", ") + ", & " + authors[len(authors)-1]
	}
}

// SortReferences sorts entries alphabetically by author surname, then
// year, then second author, matching the original implementation's
// reference-list ordering (case-insensitive).
func SortReferences(entries []models.ReferenceEntry) {
	sortReferenceEntries(entries)
}
