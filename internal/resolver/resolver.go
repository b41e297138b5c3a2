// Package resolver implements the citation-resolver federation: a fan-out
// over independent bibliographic search providers, confidence scoring,
// and reconciliation into a single best metadata record per raw citation
// (spec.md §4.3).
package resolver

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/citeflex/citeflex/internal/models"
	"github.com/citeflex/citeflex/internal/providers"
)

// PrimaryThreshold is the confidence a provider result must meet or
// exceed to be accepted directly (spec.md §4.3 step 6). It is a package
// constant, not a Config field: Config exposes only the fan-out size,
// timeout and year tolerance.
const PrimaryThreshold = 0.6

// OracleThreshold is the confidence the contextual-guessing oracle must
// meet or exceed before its guess is even considered (spec.md §4.3 step 7).
const OracleThreshold = 0.5

// OracleBoost is added to an accepted oracle guess's confidence, capped at
// OracleCap.
const OracleBoost = 0.10
const OracleCap = 0.95

// Config tunes the federation's concurrency and timeouts.
type Config struct {
	// FanOutWorkers bounds the per-query provider fan-out pool (spec.md
	// §5: "a smaller pool (>= 4 workers)").
	FanOutWorkers int
	// Timeout is the federation's overall wall-clock deadline; results
	// arriving after it are dropped.
	Timeout time.Duration
	// YearTolerance is how many years a provider's returned year may
	// differ from the requested year before that result is dropped
	// (spec.md §4.3: "providers whose returned year disagrees are dropped
	// unless within tolerance").
	YearTolerance int
}

// DefaultConfig returns citeflex's baseline federation tuning.
func DefaultConfig() Config {
	return Config{FanOutWorkers: 4, Timeout: 10 * time.Second, YearTolerance: 1}
}

// Federation fans a raw citation out to every registered Provider in
// parallel, scores the results, and falls back to an Oracle when nothing
// clears the primary threshold.
type Federation struct {
	cfg       Config
	providers []providers.Provider
	oracle    providers.Oracle
	logger    arbor.ILogger
}

// New builds a Federation. providerOrder is preserved for tie-breaking
// (spec.md §4.3 step 5: "ties broken ... by provider order declared at
// construction"). oracle may be nil, in which case step 7's fallback is
// skipped and the federation returns its best provider result (if any).
func New(cfg Config, providerOrder []providers.Provider, oracle providers.Oracle, logger arbor.ILogger) *Federation {
	if cfg.FanOutWorkers <= 0 {
		cfg.FanOutWorkers = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Federation{cfg: cfg, providers: providerOrder, oracle: oracle, logger: logger}
}

// scored pairs a provider result with its computed confidence and the
// provider's declared order, for deterministic tie-breaking.
type scored struct {
	result models.SearchResult
	order  int
}

// Resolve implements spec.md §4.3's protocol end to end. It returns nil
// metadata (never an error) when no provider and no oracle produce a
// usable result - resolution failure is a first-class outcome, not an
// exception.
func (f *Federation) Resolve(ctx context.Context, author, year, secondAuthor, docContext string) *models.CitationMetadata {
	if year == "n.d." {
		return nil
	}

	requestID := uuid.NewString()
	f.logger.Debug().Str("request_id", requestID).Str("author", author).Str("year", year).Msg("resolver: resolve requested")

	timeoutCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	query := providers.Query{Author: author, Year: year, SecondAuthor: secondAuthor, Context: docContext}

	results := f.fanOut(timeoutCtx, query)

	if len(results) > 0 {
		sortScored(results)
		best := results[0]
		if best.result.Confidence >= PrimaryThreshold {
			f.logger.Debug().Str("request_id", requestID).Str("provider", best.result.Provider).Msg("resolver: resolved above primary threshold")
			return best.result.Metadata
		}
	}

	if f.oracle != nil {
		if guess := f.tryOracle(timeoutCtx, query, author); guess != nil {
			results = append(results, scored{result: *guess, order: len(f.providers)})
			sortScored(results)
		}
	}

	if len(results) == 0 {
		f.logger.Debug().Str("request_id", requestID).Msg("resolver: no usable result")
		return nil
	}
	return results[0].result.Metadata
}

// fanOut queries every provider concurrently via a bounded pool, dropping
// any result that arrives after the federation's deadline.
func (f *Federation) fanOut(ctx context.Context, query providers.Query) []scored {
	type indexed struct {
		idx int
		sc  *scored
	}

	sem := make(chan struct{}, f.cfg.FanOutWorkers)
	out := make(chan indexed, len(f.providers))
	var wg sync.WaitGroup

	for i, p := range f.providers {
		wg.Add(1)
		go func(i int, p providers.Provider) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				out <- indexed{idx: i, sc: nil}
				return
			}

			res, err := p.Search(ctx, query)
			if err != nil {
				f.logger.Warn().Err(err).Str("provider", p.Name()).Msg("resolver: provider error, treated as empty result")
				out <- indexed{idx: i, sc: nil}
				return
			}
			if res == nil || res.Metadata == nil {
				out <- indexed{idx: i, sc: nil}
				return
			}

			if !yearConsistent(res.Metadata.Year, query.Year, f.cfg.YearTolerance) {
				out <- indexed{idx: i, sc: nil}
				return
			}

			res.Metadata.SourceEngine = p.Name()
			confidence := Confidence(res.Metadata, query.Author, query.Year, query.SecondAuthor)
			confidence = applyDOIBoost(res.Metadata, confidence)

			out <- indexed{idx: i, sc: &scored{
				result: models.SearchResult{
					Metadata:   res.Metadata,
					Confidence: confidence,
					Rationale:  p.Name() + " author+year match",
					Provider:   p.Name(),
				},
				order: i,
			}}
		}(i, p)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	collected := make([]scored, 0, len(f.providers))
	for {
		select {
		case item, ok := <-out:
			if !ok {
				return collected
			}
			if item.sc != nil {
				collected = append(collected, *item.sc)
			}
		case <-ctx.Done():
			return collected
		}
	}
}

// tryOracle invokes the oracle fallback and validates its guess against
// spec.md §4.3 step 7's acceptance rule.
func (f *Federation) tryOracle(ctx context.Context, query providers.Query, author string) *models.SearchResult {
	guess, err := f.oracle.Guess(ctx, query)
	if err != nil {
		f.logger.Warn().Err(err).Str("oracle", f.oracle.Name()).Msg("resolver: oracle error")
		return nil
	}
	if guess == nil || !guess.Valid() {
		return nil
	}
	if guess.Confidence < OracleThreshold {
		return nil
	}

	container := guess.Container
	if container == "" {
		container = guess.Publisher
	}

	metadata := &models.CitationMetadata{
		Kind:         kindFromString(guess.Kind),
		Title:        stripMarkdown(guess.Title),
		Authors:      guess.Authors,
		Year:         guess.Year,
		Container:    stripMarkdown(container),
		Volume:       guess.Volume,
		Issue:        guess.Issue,
		Pages:        guess.Pages,
		DOI:          guess.DOI,
		SourceEngine: f.oracle.Name(),
	}

	if !metadata.HasAuthorSubstring(author) {
		return nil
	}

	confidence := guess.Confidence + OracleBoost
	if confidence > OracleCap {
		confidence = OracleCap
	}

	return &models.SearchResult{
		Metadata:   metadata,
		Confidence: confidence,
		Rationale:  f.oracle.Name() + " contextual match",
		Provider:   f.oracle.Name(),
	}
}

func kindFromString(s string) models.CitationKind {
	switch s {
	case "journal":
		return models.KindJournal
	case "book":
		return models.KindBook
	case "newspaper":
		return models.KindNewspaper
	case "medical":
		return models.KindMedical
	case "government":
		return models.KindGovernment
	case "legal":
		return models.KindLegal
	case "url":
		return models.KindURL
	default:
		return models.KindGeneric
	}
}

// sortScored orders results by confidence descending; ties broken by
// richer metadata, then by declared provider order (spec.md §4.3 step 5).
func sortScored(results []scored) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.result.Confidence != b.result.Confidence {
			return a.result.Confidence > b.result.Confidence
		}
		ca, cb := completeness(a.result.Metadata), completeness(b.result.Metadata)
		if ca != cb {
			return ca > cb
		}
		return a.order < b.order
	})
}

func completeness(m *models.CitationMetadata) int {
	if m == nil {
		return 0
	}
	n := 0
	if m.Title != "" {
		n++
	}
	if m.Container != "" {
		n++
	}
	if m.Volume != "" || m.Pages != "" {
		n++
	}
	if m.DOI != "" {
		n++
	}
	return n
}

// applyDOIBoost implements spec.md §4.3 step 4: boost providers that
// carry a DOI by +0.10; penalize web-index sources that lack one by
// -0.05.
func applyDOIBoost(m *models.CitationMetadata, confidence float64) float64 {
	if m.DOI != "" {
		confidence += 0.10
	} else if m.SourceEngine == "web_index" {
		confidence -= 0.05
	}
	return clamp01(confidence)
}

// yearConsistent reports whether returnedYear agrees with requestedYear
// within tolerance years, or is empty (unverifiable, so not dropped here -
// the confidence formula handles an absent year as simply not earning the
// year-match bonus).
func yearConsistent(returnedYear, requestedYear string, tolerance int) bool {
	if returnedYear == "" {
		return true
	}
	ry, rOK := parseYear(returnedYear)
	qy, qOK := parseYear(requestedYear)
	if !rOK || !qOK {
		return true
	}
	diff := ry - qy
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
