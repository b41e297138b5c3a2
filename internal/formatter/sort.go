package formatter

import (
	"sort"
	"strings"

	"github.com/citeflex/citeflex/internal/models"
)

// sortReferenceEntries sorts in place by (surname, year, second author),
// case-insensitive, mirroring the original Python implementation's
// reference.sort(key=...) call.
func sortReferenceEntries(entries []models.ReferenceEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Citation, entries[j].Citation

		as, bs := strings.ToLower(a.Surname), strings.ToLower(b.Surname)
		if as != bs {
			return as < bs
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return strings.ToLower(a.SecondAuthor) < strings.ToLower(b.SecondAuthor)
	})
}
