package providers

import "context"

// Oracle is the contextual-guessing fallback the federation invokes when
// no provider clears the primary confidence threshold (spec.md §4.3 step
// 7). Unlike Provider, Oracle reports its own confidence directly rather
// than leaving scoring entirely to the resolver, since its judgment
// already accounts for ambiguity the structured providers can't express.
type Oracle interface {
	Name() string

	// Guess returns a best-effort metadata record for the given author,
	// year, second author (optional), and document-context hint
	// (optional), carrying the oracle's own confidence in [0, 1] in
	// OracleGuess.Confidence. It returns (nil, nil) rather than an error
	// for an ordinary "don't know".
	Guess(ctx context.Context, q Query) (*OracleGuess, error)
}

// OracleGuess is the tagged record schema an oracle must populate,
// validated at this boundary rather than passed through as a dynamic
// dictionary (spec.md §9: "map to a tagged record with a documented
// schema; validate at the boundary; reject on schema violation").
type OracleGuess struct {
	Kind       string
	Title      string
	Authors    []string
	Year       string
	Container  string
	Volume     string
	Issue      string
	Pages      string
	Publisher  string
	DOI        string
	Confidence float64
}

// Valid reports whether g satisfies the documented oracle schema: a title
// and at least one author are required for a guess to be usable at all.
func (g *OracleGuess) Valid() bool {
	return g != nil && g.Title != "" && len(g.Authors) > 0
}
