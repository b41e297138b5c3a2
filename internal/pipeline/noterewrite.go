// Package pipeline wires the resolver, form engine, and document mutator
// into the two end-to-end flows spec.md §2 names: the note-rewrite flow
// (footnotes/endnotes, resolved then classified through the S0-S5 state
// machine) and the author-date flow (in-text citations spliced into a
// trailing reference list). Both mirror the original implementation's
// two top-level entry points, restructured around a parallel Phase 1 /
// sequential Phase 2 split (spec.md §5) rather than its single-threaded
// pass.
package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/citeflex/citeflex/internal/docx"
	"github.com/citeflex/citeflex/internal/formatter"
	"github.com/citeflex/citeflex/internal/formengine"
	"github.com/citeflex/citeflex/internal/ibid"
	"github.com/citeflex/citeflex/internal/models"
	"github.com/citeflex/citeflex/internal/resolver"
	"github.com/citeflex/citeflex/internal/resultlog"
	"github.com/citeflex/citeflex/internal/workers"
)

// NoteRewritePipeline runs the footnote/endnote flow: Phase 1 resolves
// every note's metadata concurrently (spec.md §5: "N >= 10 concurrent
// note resolutions"), Phase 2 classifies the resolved notes sequentially
// through the form engine's state machine, and the result is written
// back into the document.
type NoteRewritePipeline struct {
	federation *resolver.Federation
	workers    int
	logger     arbor.ILogger
	progress   ProgressFunc
}

// NewNoteRewritePipeline builds a NoteRewritePipeline against a
// pre-configured Federation. maxWorkers bounds Phase 1's concurrency; a
// non-positive value falls back to workers.Pool's own default of 10
// (spec.md §5: "N >= 10 concurrent note resolutions").
func NewNoteRewritePipeline(federation *resolver.Federation, maxWorkers int, logger arbor.ILogger) *NoteRewritePipeline {
	return &NoteRewritePipeline{federation: federation, workers: maxWorkers, logger: logger}
}

// SetProgress registers an optional progress reporter. fn may be nil to
// disable reporting.
func (p *NoteRewritePipeline) SetProgress(fn ProgressFunc) {
	p.progress = fn
}

// Run resolves, classifies, and rewrites every footnote and endnote in
// docBytes, returning the mutated document, a structured log of what
// happened, and an error only for failures that abort the whole run
// (packaging failures; per-note problems are recorded in the log instead,
// per spec.md §4.3's provider isolation and §4.5's resolution-failure
// handling).
func (p *NoteRewritePipeline) Run(ctx context.Context, docBytes []byte, style string) ([]byte, *resultlog.Log, error) {
	doc, err := docx.Open(docBytes)
	if err != nil {
		return nil, nil, err
	}

	var raw []models.RawNote
	for _, kind := range []models.NoteKind{models.NoteKindEndnote, models.NoteKindFootnote} {
		notes, err := doc.ReadNotes(kind)
		if err != nil {
			return nil, nil, err
		}
		raw = append(raw, notes...)
	}
	report(p.progress, "extract", 10)

	resolved, log := p.resolvePhase(ctx, raw, style)
	report(p.progress, "resolve", 60)

	sort.SliceStable(resolved, func(i, j int) bool { return resolved[i].Position < resolved[j].Position })

	engine := formengine.New(style)
	finals, classifyLog := engine.Run(resolved)
	for _, e := range classifyLog.Entries() {
		log.Add(e.Severity, e.NoteID, e.Message, e.Err)
	}
	report(p.progress, "classify", 80)

	for _, final := range finals {
		if err := doc.WriteNote(final.Kind, final.ID, final.Text); err != nil {
			log.Error(fmt.Sprintf("%s-%d", final.Kind, final.ID), "writing note failed", err)
			continue
		}
	}

	if err := doc.ActivateLinks(); err != nil {
		return nil, log, err
	}
	report(p.progress, "write", 95)

	out, err := doc.Bytes()
	if err != nil {
		return nil, log, err
	}
	report(p.progress, "done", 100)
	return out, log, nil
}

// resolvePhase is Phase 1: every raw note is either recognized as an
// explicit ibid token, resolved against the federation, or marked failed,
// entirely independently of every other note - the form engine in Phase 2
// is the only stage that needs document order.
func (p *NoteRewritePipeline) resolvePhase(ctx context.Context, raw []models.RawNote, style string) ([]models.ResolvedNote, *resultlog.Log) {
	log := resultlog.New()
	resolved := make([]models.ResolvedNote, len(raw))

	pool := workers.NewPool(p.workers, p.logger)
	pool.Start()

	for i, note := range raw {
		i, note := i, note
		_ = pool.Submit(func(ctx context.Context) error {
			resolved[i] = p.resolveOne(ctx, i, note, style)
			return nil
		})
	}
	pool.Wait()

	for _, err := range pool.Errors() {
		log.Error("", "note resolution worker error", err)
	}

	return resolved, log
}

// resolveOne performs Phase 1's per-note work: ibid-token recognition
// first (spec.md §4.5 S0), then federation resolution, computing the
// full-citation rendering up front since it needs no history.
func (p *NoteRewritePipeline) resolveOne(ctx context.Context, position int, raw models.RawNote, style string) models.ResolvedNote {
	rn := models.ResolvedNote{Kind: raw.Kind, ID: raw.ID, Position: position, RawText: raw.Text}

	if isIbid, pinpoint, ok := ibid.Recognize(raw.Text); isIbid {
		rn.IsIbidToken = true
		rn.IbidPinpoint = pinpoint
		rn.IbidPinpointOK = ok
		return rn
	}

	author, year, secondAuthor := splitCitationFields(raw.Text)
	metadata := p.federation.Resolve(ctx, author, year, secondAuthor, raw.Text)
	if metadata == nil {
		rn.Failed = true
		return rn
	}

	metadata.RawSource = raw.Text
	rn.Metadata = metadata
	rn.FormattedFull = formatter.Get(style).Format(metadata)
	return rn
}

// leadAuthorPatternParenthesized matches a raw note's leading author
// citation: a surname, then an optional ", & Surname" second author, then
// a parenthesized year or "n.d." - the shape a raw footnote/endnote
// citation takes (e.g. "Bandura, A. (1977). Self-efficacy.", "Bandura,
// A., & Walters, R. (1963)."), distinct from the in-text extractor's
// "Surname (Year)" prose patterns since the initials and publisher
// punctuation sit between the surname and the year.
var leadAuthorPatternParenthesized = regexp.MustCompile(
	`^\s*([\p{Lu}][\p{L}'-]*)\s*,[^()]*?(?:&\s*([\p{Lu}][\p{L}'-]*)\s*,[^()]*?)?\(` + `(\d{4}|n\.d\.)` + `\)`,
)

// leadAuthorPatternPlain matches the non-parenthesized "Surname, ...,
// YYYY." raw-note shape (e.g. "Jones, Foo, 2001.", spec.md §8 scenarios 1
// and 2): a surname, any number of comma-separated fields, then a bare
// year or "n.d." as the final field before the terminating period.
var leadAuthorPatternPlain = regexp.MustCompile(
	`^\s*([\p{Lu}][\p{L}'-]*)\s*,.*,\s*(\d{4}|n\.d\.)\s*\.?\s*$`,
)

// splitCitationFields recovers the (author, year, second-author) query
// fields the federation needs from a raw citation sentence, trying the
// parenthesized-year shape before falling back to the plain
// comma-terminated-year shape. It is deliberately tolerant: a note whose
// shape matches neither yields an empty year, which the federation
// rejects outright (spec.md §4.3 step 1) and the note is marked a
// resolution failure, same as any other miss.
func splitCitationFields(raw string) (author, year, secondAuthor string) {
	if m := leadAuthorPatternParenthesized.FindStringSubmatch(raw); m != nil {
		return m[1], m[3], m[2]
	}
	if m := leadAuthorPatternPlain.FindStringSubmatch(raw); m != nil {
		return m[1], m[2], ""
	}
	return "", "", ""
}
