// Package extractor recovers (author, year) citation tuples from
// free-form body prose for the author-date pipeline.
package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/citeflex/citeflex/internal/models"
)

// yearPat matches a four-digit year or the literal "n.d." token.
const yearPat = `(\d{4}|n\.d\.)`

// namePat matches a capitalized surname: a leading uppercase letter
// followed by letters, accents, hyphens, or apostrophes. Accent-bearing
// characters are preserved (spec.md §4.6); all-lowercase tokens are never
// matched here because the pattern requires an initial capital, filtering
// false positives like "the (1977) study".
const namePat = `([\p{Lu}][\p{L}'-]*)`

var (
	narrativeTwoAuthor = regexp.MustCompile(namePat + `\s+and\s+` + namePat + `\s*\(` + yearPat + `\)`)
	narrativeEtAl      = regexp.MustCompile(namePat + `\s+et\s+al\.\s*\(` + yearPat + `\)`)
	narrative          = regexp.MustCompile(namePat + `\s*\(` + yearPat + `\)`)

	parentheticalEtAl       = regexp.MustCompile(`\(` + namePat + `\s+et\s+al\.,\s*` + yearPat + `\)`)
	parentheticalTwoAmp     = regexp.MustCompile(`\(` + namePat + `\s*&\s*` + namePat + `,\s*` + yearPat + `\)`)
	parentheticalTwoAnd     = regexp.MustCompile(`\(` + namePat + `\s+and\s+` + namePat + `,\s*` + yearPat + `\)`)
	parenthetical           = regexp.MustCompile(`\(` + namePat + `,\s*` + yearPat + `\)`)
	multiWorkParenthetical  = regexp.MustCompile(`\(([^()]*;[^()]*)\)`)
)

// spanned pairs a recovered citation with the byte offset its match
// started at, so the battery's output can be reordered back into
// appearance order once every pattern has run.
type spanned struct {
	start int
	cite  models.AuthorYearCitation
}

// Extract returns every (author, year) citation found in text, in the
// order their spans appear, applying the pattern battery of spec.md §4.6
// in priority order. Each match's span is masked out of the text before
// the next, lower-priority pattern runs, so (for example) a narrative
// two-author citation's second author is never re-matched on its own by
// the plain narrative pattern.
func Extract(text string) []models.AuthorYearCitation {
	var found []spanned

	// Multi-work parenthetical citations are split on ";" and each
	// segment re-run through the parenthetical patterns, then the
	// original combined span is removed from further matching by
	// extracting it first and masking it out.
	masked := text
	for _, m := range multiWorkParenthetical.FindAllStringSubmatchIndex(text, -1) {
		inner := text[m[2]:m[3]]
		for _, segment := range strings.Split(inner, ";") {
			segment = strings.TrimSpace(segment)
			if c, ok := matchParenthetical("(" + segment + ")"); ok {
				found = append(found, spanned{start: m[0], cite: c})
			}
		}
		masked = maskSpan(masked, m[0], m[1])
	}

	for _, matcher := range []struct {
		re    *regexp.Regexp
		build func([]string) (models.AuthorYearCitation, bool)
	}{
		{narrativeEtAl, buildNarrativeEtAl},
		{narrativeTwoAuthor, buildNarrativeTwoAuthor},
		{narrative, buildNarrative},
		{parentheticalEtAl, buildParentheticalEtAl},
		{parentheticalTwoAmp, buildParentheticalTwo},
		{parentheticalTwoAnd, buildParentheticalTwo},
		{parenthetical, buildParenthetical},
	} {
		for _, idx := range matcher.re.FindAllStringSubmatchIndex(masked, -1) {
			groups := submatchStrings(masked, idx)
			c, ok := matcher.build(groups)
			if !ok || !isCanonicalName(c.Surname) {
				continue
			}
			found = append(found, spanned{start: idx[0], cite: c})
			masked = maskSpan(masked, idx[0], idx[1])
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].start < found[j].start })

	out := make([]models.AuthorYearCitation, len(found))
	for i, f := range found {
		out[i] = f.cite
	}
	return out
}

// maskSpan overwrites text[start:end] with spaces, byte for byte, so a
// consumed span can never be re-matched by a lower-priority pattern while
// every other span's byte offsets stay valid for the patterns still to run.
func maskSpan(s string, start, end int) string {
	b := []byte(s)
	for i := start; i < end; i++ {
		b[i] = ' '
	}
	return string(b)
}

// submatchStrings converts a FindAllStringSubmatchIndex entry into the
// []string shape FindStringSubmatch returns (group 0 is the whole match;
// a non-participating group is the empty string), so the same build
// functions serve both masked and unmasked callers.
func submatchStrings(s string, idx []int) []string {
	out := make([]string, len(idx)/2)
	for i := 0; i < len(idx); i += 2 {
		if idx[i] < 0 {
			out[i/2] = ""
			continue
		}
		out[i/2] = s[idx[i]:idx[i+1]]
	}
	return out
}

func matchParenthetical(segment string) (models.AuthorYearCitation, bool) {
	for _, matcher := range []struct {
		re    *regexp.Regexp
		build func([]string) (models.AuthorYearCitation, bool)
	}{
		{parentheticalEtAl, buildParentheticalEtAl},
		{parentheticalTwoAmp, buildParentheticalTwo},
		{parentheticalTwoAnd, buildParentheticalTwo},
		{parenthetical, buildParenthetical},
	} {
		if m := matcher.re.FindStringSubmatch(segment); m != nil {
			return matcher.build(m)
		}
	}
	return models.AuthorYearCitation{}, false
}

func buildNarrative(m []string) (models.AuthorYearCitation, bool) {
	return models.AuthorYearCitation{Surname: canonicalize(m[1]), Year: m[2], Span: m[0]}, true
}

func buildNarrativeTwoAuthor(m []string) (models.AuthorYearCitation, bool) {
	return models.AuthorYearCitation{
		Surname:      canonicalize(m[1]),
		SecondAuthor: canonicalize(m[2]),
		Year:         m[3],
		Span:         m[0],
	}, true
}

func buildNarrativeEtAl(m []string) (models.AuthorYearCitation, bool) {
	return models.AuthorYearCitation{Surname: canonicalize(m[1]), Year: m[2], EtAl: true, Span: m[0]}, true
}

func buildParenthetical(m []string) (models.AuthorYearCitation, bool) {
	return models.AuthorYearCitation{Surname: canonicalize(m[1]), Year: m[2], Span: m[0]}, true
}

func buildParentheticalTwo(m []string) (models.AuthorYearCitation, bool) {
	return models.AuthorYearCitation{
		Surname:      canonicalize(m[1]),
		SecondAuthor: canonicalize(m[2]),
		Year:         m[3],
		Span:         m[0],
	}, true
}

func buildParentheticalEtAl(m []string) (models.AuthorYearCitation, bool) {
	return models.AuthorYearCitation{Surname: canonicalize(m[1]), Year: m[2], EtAl: true, Span: m[0]}, true
}

// canonicalize strips honorifics and collapses internal whitespace while
// preserving accent-bearing characters.
func canonicalize(name string) string {
	name = strings.TrimSpace(name)
	for _, honorific := range []string{"Dr.", "Prof.", "Mr.", "Mrs.", "Ms."} {
		name = strings.TrimPrefix(name, honorific)
	}
	return strings.Join(strings.Fields(name), " ")
}

// isCanonicalName rejects tokens that are all-lowercase, a heuristic
// filtering false positives from phrases like "the (1977) study". The
// namePat regex already requires a leading capital, so this guards
// against a canonicalized empty/degenerate result only.
func isCanonicalName(name string) bool {
	return name != "" && name != strings.ToLower(name)
}

// Dedup returns citations deduplicated by (surname.lower, year,
// second-author.lower-or-empty), preserving first-seen order.
func Dedup(cites []models.AuthorYearCitation) []models.AuthorYearCitation {
	seen := make(map[string]bool, len(cites))
	out := make([]models.AuthorYearCitation, 0, len(cites))
	for _, c := range cites {
		key := c.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
