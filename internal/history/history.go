// Package history implements the citation ledger: an ordered, append-only
// log of previously emitted citations used by the form engine to decide
// whether a resolved note is new, a repeat, or immediately repeated.
package history

import (
	"github.com/citeflex/citeflex/internal/models"
	"github.com/citeflex/citeflex/internal/sourcekey"
)

// History tracks citations emitted so far in a single document's
// processing run. It is created fresh per document and discarded when
// processing ends; nothing in it survives across documents.
type History struct {
	previous *models.HistoryEntry
	// seen maps a source key to its FIRST occurrence, never the most
	// recent one - this is what lets a short-form citation be recognized
	// as "seen before" even after many interleaving citations of other
	// sources.
	seen    map[string]models.HistoryEntry
	ordinal int
}

// New returns an empty History.
func New() *History {
	return &History{seen: make(map[string]models.HistoryEntry)}
}

// Add records a citation. The note ordinal strictly increases with every
// call. The entry is inserted into seen iff its source key is non-null and
// not already present - first occurrence wins.
func (h *History) Add(metadata *models.CitationMetadata, formatted string) models.HistoryEntry {
	h.ordinal++

	key, _ := sourcekey.Key(metadata)
	entry := models.HistoryEntry{
		Metadata:  metadata,
		Formatted: formatted,
		SourceKey: key,
		Ordinal:   h.ordinal,
	}

	h.previous = &entry

	if key != "" {
		if _, exists := h.seen[key]; !exists {
			h.seen[key] = entry
		}
	}

	return entry
}

// IsSameAsPrevious reports whether metadata shares a non-null source key
// with the immediately preceding entry added to this History.
func (h *History) IsSameAsPrevious(metadata *models.CitationMetadata) bool {
	if h.previous == nil {
		return false
	}
	return sourcekey.Same(metadata, h.previous.Metadata)
}

// HasBeenCitedBefore reports whether metadata's source key is non-null and
// already present in the ledger (its first occurrence).
func (h *History) HasBeenCitedBefore(metadata *models.CitationMetadata) bool {
	key, ok := sourcekey.Key(metadata)
	if !ok {
		return false
	}
	_, exists := h.seen[key]
	return exists
}

// Previous returns the most recently added entry, or nil if none has been
// added yet.
func (h *History) Previous() *models.HistoryEntry {
	return h.previous
}

// FirstOccurrence returns the first-seen entry for metadata's source key,
// used by short-form formatting (e.g. to recover the page/volume of the
// original full citation). ok is false if metadata has no source key or
// has not been seen.
func (h *History) FirstOccurrence(metadata *models.CitationMetadata) (models.HistoryEntry, bool) {
	key, ok := sourcekey.Key(metadata)
	if !ok {
		return models.HistoryEntry{}, false
	}
	entry, exists := h.seen[key]
	return entry, exists
}
