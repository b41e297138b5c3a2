// Package formatter defines the narrow adapter boundary between resolved
// metadata and style-specific citation text. Concrete style-specific
// formatting rules are out of scope for citeflex proper (spec.md §1) - the
// engineering here is the interface and registry; the registry ships one
// reference implementation (APA) plus stub registrations for the other
// named styles so unknown-style lookups always resolve to something
// usable.
package formatter

import "github.com/citeflex/citeflex/internal/models"

// Formatter renders a resolved citation in a restricted pseudo-markup:
// plain text with <i>...</i> marking italic spans, and no other markup.
// The document mutator is responsible for translating that markup into
// native italic runs.
type Formatter interface {
	// Format renders the full citation form.
	Format(m *models.CitationMetadata) string

	// FormatShort renders the short form used once a source has already
	// been cited earlier in the document.
	FormatShort(m *models.CitationMetadata) string

	// FormatIbid renders a back-reference, with an optional pinpoint page
	// range. Implementations must not require metadata: this is called
	// for both explicit-token ibids (S0) and resolved same-source ibids
	// (S3), the former of which have no structured data at all.
	FormatIbid(pinpoint string) string
}

// registry maps a human-readable style name to its Formatter instance.
var registry = map[string]Formatter{}

func init() {
	apa := NewAPAFormatter()
	Register("APA (7th ed.)", apa)
	Register("Harvard", apa)
	Register("Chicago Author-Date", apa)
	Register("Chicago Manual of Style", apa)
	Register("ASA (Sociology)", apa)
	Register("AAA (Anthropology)", apa)
	Register("Turabian Author-Date", apa)
}

// Register installs f as the Formatter for name, overwriting any existing
// registration. Callers supplying real per-style formatters should call
// this at composition root before running a pipeline.
func Register(name string, f Formatter) {
	registry[name] = f
}

// Get returns the Formatter registered for name. Unknown style names fall
// back to APA, per spec.md §6.
func Get(name string) Formatter {
	if f, ok := registry[name]; ok {
		return f
	}
	return registry["APA (7th ed.)"]
}

// HeadingFor returns the reference-list section heading expected for the
// given style name, one of the three recognized headings (spec.md §4.8,
// §6), matching the original implementation's per-style heading choice.
func HeadingFor(style string) string {
	switch style {
	case "AAA (Anthropology)":
		return "References Cited"
	case "Turabian Author-Date":
		return "Bibliography"
	default:
		return "References"
	}
}
