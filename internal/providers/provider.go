// Package providers implements the resolver's external collaborators: the
// bibliographic search providers queried in parallel by the federation,
// and the contextual-guessing oracle used as a last-resort fallback.
package providers

import (
	"context"

	"github.com/citeflex/citeflex/internal/models"
)

// Query is the structured search request the resolver issues to a
// Provider. Fields mirror the resolver's per-query conventions (spec.md
// §4.3): providers that accept structured fields use Author/Year/
// SecondAuthor directly; providers that only accept free text should
// build their own query string from these fields.
type Query struct {
	Author       string
	Year         string
	SecondAuthor string
	Context      string // optional document-field hint (e.g. "psychology")
}

// Provider is the uniform collaborator contract every bibliographic
// search source implements: search(query) -> metadata | nil. Providers
// may return an error on network failure; the federation isolates it and
// treats the call as an empty result.
type Provider interface {
	// Name identifies this provider for logging, tie-breaking, and the
	// source-engine diagnostic tag.
	Name() string

	// Search performs one lookup. It must never block longer than the
	// context's deadline, and must return (nil, nil) rather than an error
	// for an ordinary "not found" outcome.
	Search(ctx context.Context, q Query) (*Result, error)
}

// Result is a Provider's raw answer, prior to confidence scoring.
type Result struct {
	Metadata *models.CitationMetadata
}
