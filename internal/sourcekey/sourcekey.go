// Package sourcekey derives a stable identity key from a CitationMetadata
// record, used to decide whether two records describe the same source.
package sourcekey

import (
	"strings"

	"github.com/citeflex/citeflex/internal/models"
	"github.com/citeflex/citeflex/internal/normalize"
)

// Key returns the canonical source key for m, in priority order:
// doi > url > legal > title(+author) > case. The second return value is
// false iff no DOI, URL, legal case, or title exists on the metadata, in
// which case the key is always "".
func Key(m *models.CitationMetadata) (string, bool) {
	if m == nil {
		return "", false
	}

	if doi := normalize.DOI(m.DOI); doi != "" {
		return "doi:" + doi, true
	}

	if u := normalize.URL(m.URL); u != "" {
		return "url:" + u, true
	}

	if m.CaseName != "" && m.CaseCitation != "" {
		return "legal:" + strings.ToLower(m.CaseName) + "|" + strings.ToLower(m.CaseCitation), true
	}

	if m.Title != "" {
		key := "title:" + strings.ToLower(strings.TrimSpace(m.Title))
		if first := m.FirstAuthorSurname(); first != "" {
			key += "|author:" + strings.ToLower(first)
		}
		return key, true
	}

	if m.CaseName != "" {
		return "case:" + strings.ToLower(m.CaseName), true
	}

	return "", false
}

// Same reports whether a and b are the same source: both must yield
// non-null, equal source keys. A null key never compares equal, even to
// another null key.
func Same(a, b *models.CitationMetadata) bool {
	keyA, okA := Key(a)
	if !okA {
		return false
	}
	keyB, okB := Key(b)
	if !okB {
		return false
	}
	return keyA == keyB
}
