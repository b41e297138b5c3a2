// Package models defines the core value types shared across citeflex's
// resolver, history, form engine, extractor, and document mutator.
//
// All types here are immutable once constructed: a CitationMetadata is
// produced by exactly one resolver call, gets its RawSource set by the
// pipeline that requested it, and is never mutated after that; a
// HistoryEntry is appended to a History and never rewritten in place.
package models

import "strings"

// CitationKind classifies the kind of source a CitationMetadata describes.
type CitationKind string

const (
	KindJournal    CitationKind = "journal"
	KindBook       CitationKind = "book"
	KindNewspaper  CitationKind = "newspaper"
	KindMedical    CitationKind = "medical"
	KindGovernment CitationKind = "government"
	KindLegal      CitationKind = "legal"
	KindURL        CitationKind = "url"
	KindGeneric    CitationKind = "generic"
)

// CitationMetadata is a resolved bibliographic record. Any field may be
// empty; callers must not assume completeness.
type CitationMetadata struct {
	Kind CitationKind `json:"kind"`

	Title   string   `json:"title"`
	Authors []string `json:"authors"` // surname-first, e.g. "Bandura, Albert"
	Year    string   `json:"year"`    // four digits, or "n.d."

	PublicationDate string `json:"publication_date,omitempty"` // free-form
	Container       string `json:"container,omitempty"`        // journal / newspaper / publisher
	Volume          string `json:"volume,omitempty"`
	Issue           string `json:"issue,omitempty"`
	Pages           string `json:"pages,omitempty"`

	DOI        string `json:"doi,omitempty"`
	URL        string `json:"url,omitempty"`
	AccessDate string `json:"access_date,omitempty"`

	// SourceEngine names the provider that produced this record. Diagnostic
	// only - never part of source-key derivation or formatting.
	SourceEngine string `json:"source_engine,omitempty"`

	// Legal fields, populated only for KindLegal records.
	CaseName     string `json:"case_name,omitempty"`
	CaseCitation string `json:"case_citation,omitempty"`

	// RawSource echoes the original raw citation text this record resolved.
	RawSource string `json:"raw_source,omitempty"`
}

// FirstAuthorSurname returns the surname of the primary author, or "" if
// the author list is empty. Authors are stored surname-first ("Bandura,
// Albert"), so the surname is the text before the first comma if present,
// else the whole string.
func (m *CitationMetadata) FirstAuthorSurname() string {
	if m == nil || len(m.Authors) == 0 {
		return ""
	}
	a := m.Authors[0]
	if i := strings.Index(a, ","); i >= 0 {
		return strings.TrimSpace(a[:i])
	}
	return strings.TrimSpace(a)
}

// HasAuthorSubstring reports whether surname appears, case-insensitively,
// as a substring of any author in the record.
func (m *CitationMetadata) HasAuthorSubstring(surname string) bool {
	if m == nil || surname == "" {
		return false
	}
	needle := strings.ToLower(surname)
	for _, a := range m.Authors {
		if strings.Contains(strings.ToLower(a), needle) {
			return true
		}
	}
	return false
}

// AuthorYearCitation is an in-text (author, year) tuple recovered by the
// extractor from body prose.
type AuthorYearCitation struct {
	Surname      string `json:"surname"`
	Year         string `json:"year"` // four digits, or the literal "n.d."
	SecondAuthor string `json:"second_author,omitempty"`
	EtAl         bool   `json:"et_al,omitempty"`
	Span         string `json:"span"` // original matched text
}

// DedupKey returns the (surname, year, second-author) identity used to
// deduplicate citations while preserving first-seen order.
func (c AuthorYearCitation) DedupKey() string {
	second := strings.ToLower(c.SecondAuthor)
	return strings.ToLower(c.Surname) + "|" + c.Year + "|" + second
}

// SearchResult is a (metadata, confidence, rationale) triple produced by
// one provider within the resolver's federation.
type SearchResult struct {
	Metadata   *CitationMetadata `json:"metadata"`
	Confidence float64           `json:"confidence"` // clamped to [0, 1]
	Rationale  string            `json:"rationale"`
	Provider   string            `json:"provider"`
}

// HistoryEntry is one record in the citation ledger: the metadata that was
// resolved, the string that was actually emitted for it, its source key,
// and the note ordinal it was recorded under.
type HistoryEntry struct {
	Metadata  *CitationMetadata
	Formatted string
	SourceKey string
	Ordinal   int
}

// ReferenceEntry pairs an in-text citation with its resolved metadata and
// formatted reference-list line, carried forward from the author-date
// pipeline's original Python counterpart (ReferenceEntry dataclass).
type ReferenceEntry struct {
	Citation   AuthorYearCitation
	Metadata   *CitationMetadata // nil if lookup failed
	Formatted  string
	Found      bool
	Confidence float64
	Error      string
}

// ProcessingResult summarizes an author-date pipeline run, mirroring the
// original implementation's ProcessingResult dataclass.
type ProcessingResult struct {
	CitationsFound    int
	CitationsResolved int
	CitationsFailed   int
	References        []ReferenceEntry
	ReferenceListText string
	Style             string
	Errors            []string
}
