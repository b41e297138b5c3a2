// Package formengine implements the citation-form state machine: the
// sequential S0-S5 classifier that decides, for each note in document
// order, whether to emit a full citation, a short form, or an ibid
// back-reference (spec.md §4.5).
package formengine

import (
	"fmt"

	"github.com/citeflex/citeflex/internal/formatter"
	"github.com/citeflex/citeflex/internal/history"
	"github.com/citeflex/citeflex/internal/models"
	"github.com/citeflex/citeflex/internal/normalize"
	"github.com/citeflex/citeflex/internal/resultlog"
)

// Outcome names, recorded on every FinalNote and logged.
const (
	OutcomeFull                = "full"
	OutcomeShort                = "short"
	OutcomeIbid                 = "ibid"
	OutcomeIbidWithoutPrecedent = "ibid_without_precedent"
	OutcomeResolutionFailed     = "resolution_failed"
)

// Engine runs the state machine over one document's resolved notes,
// against a single style's Formatter.
type Engine struct {
	style string
}

// New builds an Engine rendering in the named citation style (falling
// back to APA for unrecognized names, per formatter.Get).
func New(style string) *Engine {
	return &Engine{style: style}
}

// Run classifies every note in sequence, mutating a fresh History as it
// goes, and returns the final text for each note plus a structured log of
// what happened. notes must already be sorted into document order (Phase
// 1 may resolve them out of order; the pipeline is responsible for
// re-sorting by Position before calling Run).
func (e *Engine) Run(notes []models.ResolvedNote) ([]models.FinalNote, *resultlog.Log) {
	h := history.New()
	log := resultlog.New()
	f := formatter.Get(e.style)

	finals := make([]models.FinalNote, 0, len(notes))

	for _, note := range notes {
		finals = append(finals, e.classify(note, h, f, log))
	}

	return finals, log
}

func (e *Engine) classify(note models.ResolvedNote, h *history.History, f formatter.Formatter, log *resultlog.Log) models.FinalNote {
	noteID := fmt.Sprintf("%s-%d", note.Kind, note.ID)

	// S0: raw is an explicit ibid token.
	if note.IsIbidToken {
		if h.Previous() == nil {
			log.Error(noteID, "ibid token with no preceding citation", resultlog.ErrIbidWithoutPrecedent)
			return models.FinalNote{Kind: note.Kind, ID: note.ID, Text: note.RawText, Outcome: OutcomeIbidWithoutPrecedent}
		}
		pinpoint := ""
		if note.IbidPinpointOK {
			pinpoint = note.IbidPinpoint
		}
		text := f.FormatIbid(pinpoint)
		log.Info(noteID, "ibid token resolved against preceding citation")
		return models.FinalNote{Kind: note.Kind, ID: note.ID, Text: text, Outcome: OutcomeIbid}
	}

	// S1: Phase 1 could not resolve metadata for this note.
	if note.Failed || note.Metadata == nil {
		log.Error(noteID, "citation resolution failed", fmt.Errorf("%s: %w", noteID, resultlog.ErrResolutionMiss))
		return models.FinalNote{Kind: note.Kind, ID: note.ID, Text: note.RawText, Outcome: OutcomeResolutionFailed}
	}

	// S2: resolved URL matches the immediately preceding citation's URL
	// under URL-normalization. Deliberately does not push to history - see
	// spec.md's rationale for the asymmetric S2/S3
	// history-push behavior.
	if prev := h.Previous(); prev != nil && prev.Metadata != nil && note.Metadata.URL != "" && prev.Metadata.URL != "" {
		if normalize.URL(note.Metadata.URL) == normalize.URL(prev.Metadata.URL) {
			log.Info(noteID, "URL ibid: matches immediately preceding citation's URL")
			return models.FinalNote{Kind: note.Kind, ID: note.ID, Text: f.FormatIbid(""), Outcome: OutcomeIbid}
		}
	}

	// S3: resolved source matches the immediately preceding citation's
	// source key. Pushes to history: a same-as-previous match still
	// carries fresh structured metadata worth recording.
	if h.IsSameAsPrevious(note.Metadata) {
		h.Add(note.Metadata, note.FormattedFull)
		log.Info(noteID, "source ibid: matches immediately preceding citation")
		return models.FinalNote{Kind: note.Kind, ID: note.ID, Text: f.FormatIbid(""), Outcome: OutcomeIbid}
	}

	// S4: source has been cited earlier in the document (not necessarily
	// immediately before).
	if h.HasBeenCitedBefore(note.Metadata) {
		h.Add(note.Metadata, note.FormattedFull)
		short := f.FormatShort(note.Metadata)
		log.Info(noteID, "short form: source cited earlier in document")
		return models.FinalNote{Kind: note.Kind, ID: note.ID, Text: short, Outcome: OutcomeShort}
	}

	// S5: first occurrence of this source in the document.
	h.Add(note.Metadata, note.FormattedFull)
	log.Info(noteID, "full citation: first occurrence of this source")
	return models.FinalNote{Kind: note.Kind, ID: note.ID, Text: note.FormattedFull, Outcome: OutcomeFull}
}
