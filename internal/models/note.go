package models

// NoteKind identifies which document part a note lives in.
type NoteKind string

const (
	NoteKindEndnote  NoteKind = "endnote"
	NoteKindFootnote NoteKind = "footnote"
)

// RawNote is a note as read from the document, before resolution.
type RawNote struct {
	Kind NoteKind
	ID   int
	Text string
}

// ResolvedNote is the Phase 1 output for a single raw note: either a
// resolved metadata record with its formatted full citation, or an
// ibid-marker, or a resolution failure. Exactly one of Metadata / IsIbidToken /
// Failed is the note's disposition; the form engine in Phase 2 decides
// the final emitted text from this plus the accumulated history.
type ResolvedNote struct {
	Kind NoteKind
	ID   int
	// Position is the note's original index in document order, used only
	// so Phase 1's unordered parallel results can be sorted back into
	// sequence before Phase 2.
	Position int

	RawText string

	// Set when the recognizer classified RawText as an explicit ibid
	// token (S0 in the form engine's state table).
	IsIbidToken    bool
	IbidPinpoint   string
	IbidPinpointOK bool

	// Set when Phase 1 resolved metadata for this note (not an ibid
	// token). FormattedFull is the formatter's full-citation rendering,
	// computed once in Phase 1 since it needs no history.
	Metadata      *CitationMetadata
	FormattedFull string

	// Set when resolution failed outright (no metadata, not an ibid
	// token): S1 in the form engine.
	Failed bool
}

// FinalNote is the Phase 2 output: the text that should actually be
// written back into the document for this note ID.
type FinalNote struct {
	Kind NoteKind
	ID   int
	Text string

	// Outcome names which form-engine state produced Text, for the
	// results log: "full", "short", "ibid", "ibid_without_precedent",
	// "resolution_failed".
	Outcome string
}
