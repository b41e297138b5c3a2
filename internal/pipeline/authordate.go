package pipeline

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/citeflex/citeflex/internal/docx"
	"github.com/citeflex/citeflex/internal/extractor"
	"github.com/citeflex/citeflex/internal/formatter"
	"github.com/citeflex/citeflex/internal/models"
	"github.com/citeflex/citeflex/internal/resolver"
	"github.com/citeflex/citeflex/internal/resultlog"
	"github.com/citeflex/citeflex/internal/workers"
)

// AuthorDatePipeline runs the author-date flow: every (author, year)
// tuple found in the body is resolved in parallel, formatted, and spliced
// into a trailing reference list (spec.md §2's author-date data flow),
// mirroring the original implementation's ProcessingResult-returning
// entry point.
type AuthorDatePipeline struct {
	federation *resolver.Federation
	workers    int
	logger     arbor.ILogger
	progress   ProgressFunc
}

// NewAuthorDatePipeline builds an AuthorDatePipeline against a
// pre-configured Federation.
func NewAuthorDatePipeline(federation *resolver.Federation, maxWorkers int, logger arbor.ILogger) *AuthorDatePipeline {
	return &AuthorDatePipeline{federation: federation, workers: maxWorkers, logger: logger}
}

// SetProgress registers an optional progress reporter. fn may be nil to
// disable reporting.
func (p *AuthorDatePipeline) SetProgress(fn ProgressFunc) {
	p.progress = fn
}

// Run extracts, resolves, and formats the document's in-text citations,
// splices a reference list in the chosen style, activates links, and
// returns the mutated document alongside a processing summary and a
// structured log.
func (p *AuthorDatePipeline) Run(ctx context.Context, docBytes []byte, style string) ([]byte, *models.ProcessingResult, *resultlog.Log, error) {
	log := resultlog.New()

	doc, err := docx.Open(docBytes)
	if err != nil {
		return nil, nil, nil, err
	}

	body, err := doc.BodyText()
	if err != nil {
		log.Error("", "extracting body text failed", err)
		return nil, nil, log, err
	}

	found := extractor.Extract(body)
	unique := extractor.Dedup(found)
	report(p.progress, "extract", 10)

	result := &models.ProcessingResult{
		CitationsFound: len(found),
		Style:          style,
	}

	entries := p.resolveEach(ctx, unique, style, log)
	report(p.progress, "resolve", 60)

	referenceLines := make([]string, 0, len(entries))
	for _, e := range entries {
		result.References = append(result.References, e)
		if e.Found {
			result.CitationsResolved++
			referenceLines = append(referenceLines, e.Formatted)
		} else {
			result.CitationsFailed++
		}
	}
	formatter.SortReferences(result.References)
	result.Errors = log.Messages()
	report(p.progress, "format", 75)

	if err := doc.SpliceReferences(style, referenceLines); err != nil {
		log.Error("", "splicing reference list failed", err)
		return nil, result, log, err
	}

	if err := doc.ActivateLinks(); err != nil {
		return nil, result, log, err
	}
	report(p.progress, "write", 95)

	out, err := doc.Bytes()
	if err != nil {
		return nil, result, log, err
	}

	report(p.progress, "done", 100)
	return out, result, log, nil
}

// resolveEach resolves every deduplicated citation tuple concurrently
// (spec.md §2: "[resolver × N in parallel]"), returning one ReferenceEntry
// per tuple in its original order.
func (p *AuthorDatePipeline) resolveEach(ctx context.Context, cites []models.AuthorYearCitation, style string, log *resultlog.Log) []models.ReferenceEntry {
	entries := make([]models.ReferenceEntry, len(cites))
	f := formatter.Get(style)

	pool := workers.NewPool(p.workers, p.logger)
	pool.Start()

	for i, c := range cites {
		i, c := i, c
		_ = pool.Submit(func(ctx context.Context) error {
			entries[i] = p.resolveCitation(ctx, c, f)
			return nil
		})
	}
	pool.Wait()

	for _, err := range pool.Errors() {
		log.Error("", "citation resolution worker error", err)
	}
	for i, e := range entries {
		if !e.Found {
			log.Error(cites[i].Span, "citation resolution miss", resultlog.ErrResolutionMiss)
		}
	}

	return entries
}

func (p *AuthorDatePipeline) resolveCitation(ctx context.Context, c models.AuthorYearCitation, f formatter.Formatter) models.ReferenceEntry {
	entry := models.ReferenceEntry{Citation: c}

	metadata := p.federation.Resolve(ctx, c.Surname, c.Year, c.SecondAuthor, c.Span)
	if metadata == nil {
		entry.Found = false
		entry.Error = "no metadata resolved above threshold"
		return entry
	}

	metadata.RawSource = c.Span
	entry.Metadata = metadata
	entry.Found = true
	entry.Formatted = f.Format(metadata)
	return entry
}
