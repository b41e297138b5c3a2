package resolver

import (
	"strconv"
	"strings"

	"github.com/citeflex/citeflex/internal/models"
)

// Confidence implements spec.md §4.3's scoring formula for a single
// provider result against the query that produced it. The DOI-boost and
// web-index penalty are applied separately by the caller, since those
// depend on which provider produced the record rather than on the record
// alone.
func Confidence(m *models.CitationMetadata, author, year, secondAuthor string) float64 {
	if m == nil {
		return 0
	}

	var score float64

	switch yearDelta(m.Year, year) {
	case 0:
		score += 0.30
	case 1:
		score += 0.20
	}

	if m.HasAuthorSubstring(author) {
		score += 0.30
	}

	if secondAuthor != "" && m.HasAuthorSubstring(secondAuthor) {
		score += 0.15
	}

	if m.DOI != "" {
		score += 0.15
	}

	if m.Title != "" {
		score += 0.05
	}
	if m.Container != "" {
		score += 0.05
	}
	if m.Volume != "" || m.Pages != "" {
		score += 0.05
	}

	return clamp01(score)
}

// yearDelta returns the absolute difference in years between returned and
// requested, or -1 if either is not a parseable four-digit year.
func yearDelta(returned, requested string) int {
	ry, rOK := parseYear(returned)
	qy, qOK := parseYear(requested)
	if !rOK || !qOK {
		return -1
	}
	d := ry - qy
	if d < 0 {
		d = -d
	}
	return d
}

// parseYear extracts a four-digit year from a possibly decorated string
// ("1977", "1977-03", "c. 1977").
func parseYear(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	digits := ""
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits += string(r)
			if len(digits) == 4 {
				break
			}
		} else if len(digits) > 0 {
			break
		}
	}
	if len(digits) != 4 {
		return 0, false
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return v, true
}
