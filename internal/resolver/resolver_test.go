package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/citeflex/citeflex/internal/models"
	"github.com/citeflex/citeflex/internal/providers"
)

// fakeProvider is a hand-written stand-in for providers.Provider, returning
// a canned result or error without any network I/O.
type fakeProvider struct {
	name   string
	result *providers.Result
	err    error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(_ context.Context, _ providers.Query) (*providers.Result, error) {
	return f.result, f.err
}

// fakeOracle is a hand-written stand-in for providers.Oracle.
type fakeOracle struct {
	guess *providers.OracleGuess
	err   error
}

func (f *fakeOracle) Name() string { return "fake_oracle" }

func (f *fakeOracle) Guess(_ context.Context, _ providers.Query) (*providers.OracleGuess, error) {
	return f.guess, f.err
}

func metadataResult(author, year, doi string) *providers.Result {
	return &providers.Result{Metadata: &models.CitationMetadata{
		Kind:    models.KindJournal,
		Title:   "Self-Efficacy: Toward a Unifying Theory of Behavioral Change",
		Authors: []string{author},
		Year:    year,
		DOI:     doi,
	}}
}

func TestResolveRejectsNoDate(t *testing.T) {
	f := New(DefaultConfig(), []providers.Provider{&fakeProvider{name: "p1"}}, nil, arbor.NewLogger())
	got := f.Resolve(context.Background(), "Bandura", "n.d.", "", "")
	assert.Nil(t, got)
}

func TestResolveAcceptsHighConfidencePrimary(t *testing.T) {
	p := &fakeProvider{name: "crossref", result: metadataResult("Bandura, Albert", "1977", "10.1037/0033-295X.84.2.191")}
	f := New(DefaultConfig(), []providers.Provider{p}, nil, arbor.NewLogger())

	got := f.Resolve(context.Background(), "Bandura", "1977", "", "")

	if assert.NotNil(t, got) {
		assert.Equal(t, "crossref", got.SourceEngine)
		assert.Equal(t, "10.1037/0033-295X.84.2.191", got.DOI)
	}
}

func TestResolveDropsYearMismatchBeyondTolerance(t *testing.T) {
	p := &fakeProvider{name: "crossref", result: metadataResult("Bandura, Albert", "1965", "10.1037/xyz")}
	f := New(DefaultConfig(), []providers.Provider{p}, nil, arbor.NewLogger())

	got := f.Resolve(context.Background(), "Bandura", "1977", "", "")

	assert.Nil(t, got)
}

func TestResolveTieBreaksByProviderOrder(t *testing.T) {
	// Both providers return equally-scored, equally-complete metadata
	// without a DOI; "first" is declared before "second" and must win.
	first := &fakeProvider{name: "first", result: &providers.Result{Metadata: &models.CitationMetadata{
		Title: "A Theory", Authors: []string{"Bandura, Albert"}, Year: "1977",
	}}}
	second := &fakeProvider{name: "second", result: &providers.Result{Metadata: &models.CitationMetadata{
		Title: "A Theory", Authors: []string{"Bandura, Albert"}, Year: "1977",
	}}}

	f := New(DefaultConfig(), []providers.Provider{first, second}, nil, arbor.NewLogger())

	results := f.fanOut(context.Background(), providers.Query{Author: "Bandura", Year: "1977"})
	sortScored(results)

	if assert.Len(t, results, 2) {
		assert.Equal(t, "first", results[0].result.Provider)
	}
}

func TestResolveFallsBackToOracleWhenBelowThreshold(t *testing.T) {
	// A provider result that only matches on year (no author overlap)
	// stays below the primary threshold.
	weak := &fakeProvider{name: "openalex", result: &providers.Result{Metadata: &models.CitationMetadata{
		Title: "Unrelated Work", Authors: []string{"Someone, Else"}, Year: "1977",
	}}}

	oracle := &fakeOracle{guess: &providers.OracleGuess{
		Title:      "Self-Efficacy: Toward a Unifying Theory of Behavioral Change",
		Authors:    []string{"Bandura, Albert"},
		Year:       "1977",
		Confidence: 0.7,
	}}

	f := New(DefaultConfig(), []providers.Provider{weak}, oracle, arbor.NewLogger())

	got := f.Resolve(context.Background(), "Bandura", "1977", "", "")

	if assert.NotNil(t, got) {
		assert.Equal(t, "fake_oracle", got.SourceEngine)
	}
}

func TestResolveRejectsOracleGuessWithoutAuthorMatch(t *testing.T) {
	oracle := &fakeOracle{guess: &providers.OracleGuess{
		Title:      "Something Else Entirely",
		Authors:    []string{"Kahneman, Daniel"},
		Year:       "1977",
		Confidence: 0.9,
	}}

	f := New(DefaultConfig(), nil, oracle, arbor.NewLogger())

	got := f.Resolve(context.Background(), "Bandura", "1977", "", "")

	assert.Nil(t, got)
}

func TestResolveReturnsNilWhenNothingMatches(t *testing.T) {
	empty := &fakeProvider{name: "crossref", result: nil}
	f := New(DefaultConfig(), []providers.Provider{empty}, nil, arbor.NewLogger())

	got := f.Resolve(context.Background(), "Bandura", "1977", "", "")

	assert.Nil(t, got)
}

func TestConfidenceScoring(t *testing.T) {
	exact := &models.CitationMetadata{
		Title: "Self-Efficacy", Authors: []string{"Bandura, Albert"}, Year: "1977",
		Container: "Psychological Review", Volume: "84", DOI: "10.1037/x",
	}
	got := Confidence(exact, "Bandura", "1977", "")
	assert.InDelta(t, 0.90, got, 0.001)

	offByOne := &models.CitationMetadata{Authors: []string{"Bandura, Albert"}, Year: "1978"}
	got = Confidence(offByOne, "Bandura", "1977", "")
	assert.InDelta(t, 0.50, got, 0.001)

	noMatch := &models.CitationMetadata{Authors: []string{"Someone, Else"}, Year: "1950"}
	got = Confidence(noMatch, "Bandura", "1977", "")
	assert.InDelta(t, 0.0, got, 0.001)
}

func TestApplyDOIBoostPenalizesWebIndexWithoutDOI(t *testing.T) {
	m := &models.CitationMetadata{SourceEngine: "web_index"}
	got := applyDOIBoost(m, 0.5)
	assert.InDelta(t, 0.45, got, 0.001)
}
