// Package resultlog defines citeflex's error taxonomy and the structured
// per-run log every pipeline accumulates, grounded on the teacher's
// package-level sentinel-error convention (e.g.
// internal/interfaces/kv_storage.go's ErrKeyNotFound, internal/queue/
// manager.go's ErrNoMessage).
package resultlog

import "errors"

// Sentinel errors a pipeline operation may wrap with fmt.Errorf("...: %w",
// err) before returning. Callers use errors.Is against these rather than
// matching on message text.
var (
	// ErrExtraction marks a failure recovering in-text citations or note
	// references from the source document.
	ErrExtraction = errors.New("citeflex: extraction failed")

	// ErrResolutionMiss marks a citation the federation could not resolve
	// above its primary threshold, with no oracle fallback succeeding
	// either. Not necessarily fatal to the overall run - callers record it
	// and continue.
	ErrResolutionMiss = errors.New("citeflex: resolution miss")

	// ErrProvider marks a bibliographic provider or oracle call that
	// failed outright (network, malformed response). The federation
	// isolates this per spec.md §4.3 and treats it as an empty result.
	ErrProvider = errors.New("citeflex: provider call failed")

	// ErrIbidWithoutPrecedent marks an ibid token recognized with no
	// preceding citation in the document's history to refer back to.
	ErrIbidWithoutPrecedent = errors.New("citeflex: ibid without precedent")

	// ErrWrite marks a failure writing into a document part (the target
	// part, note or body is missing) or serializing a mutated part back
	// into the archive.
	ErrWrite = errors.New("citeflex: write failed")

	// ErrPackaging marks a failure reading or rebuilding the OOXML zip
	// container, including a part that is absent or is not well-formed
	// XML when first read.
	ErrPackaging = errors.New("citeflex: packaging failed")
)

// Severity classifies how a Log entry should affect the overall run
// outcome.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Entry is one structured record in a pipeline's results log: what
// happened, to which note or citation, and how severely.
type Entry struct {
	Severity Severity
	NoteID   string // note or citation identifier this entry concerns, if any
	Message  string
	Err      error
}

// Log accumulates Entry records across a pipeline run and summarizes them
// for the caller, mirroring the original implementation's
// ProcessingResult counters without tying citeflex to any one pipeline's
// domain types.
type Log struct {
	entries []Entry
}

// New returns an empty Log.
func New() *Log {
	return &Log{}
}

// Add appends an entry.
func (l *Log) Add(severity Severity, noteID, message string, err error) {
	l.entries = append(l.entries, Entry{Severity: severity, NoteID: noteID, Message: message, Err: err})
}

// Info records an informational entry.
func (l *Log) Info(noteID, message string) {
	l.Add(SeverityInfo, noteID, message, nil)
}

// Warn records a recoverable problem.
func (l *Log) Warn(noteID, message string, err error) {
	l.Add(SeverityWarn, noteID, message, err)
}

// Error records a failure.
func (l *Log) Error(noteID, message string, err error) {
	l.Add(SeverityError, noteID, message, err)
}

// Entries returns every recorded entry, in the order they were added.
func (l *Log) Entries() []Entry {
	return l.entries
}

// ErrorCount returns how many entries were recorded at SeverityError.
func (l *Log) ErrorCount() int {
	n := 0
	for _, e := range l.entries {
		if e.Severity == SeverityError {
			n++
		}
	}
	return n
}

// HasErrors reports whether any SeverityError entry was recorded.
func (l *Log) HasErrors() bool {
	return l.ErrorCount() > 0
}

// Messages returns every entry's message, in order, for a plain-text
// summary (e.g. the author-date pipeline's ProcessingResult.Errors).
func (l *Log) Messages() []string {
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.Message)
	}
	return out
}
