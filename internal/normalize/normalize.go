// Package normalize canonicalizes URLs and DOIs so equality checks are
// stable across casing, protocol, and incidental query-string differences.
package normalize

import (
	"net/url"
	"strings"
)

// URL lowercases, trims, strips a trailing slash, and drops the query
// string, so "https://Example.com/a?utm=x" and "https://example.com/a/"
// compare equal.
func URL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	lower := strings.ToLower(raw)

	parsed, err := url.Parse(lower)
	if err != nil {
		// Not a well-formed URL; fall back to simple trimming so the
		// function never fails.
		return strings.TrimSuffix(lower, "/")
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""

	normalized := parsed.String()
	normalized = strings.TrimSuffix(normalized, "/")
	return normalized
}

// DOI lowercases and strips any "doi:" or doi.org URL prefix, trimming
// whitespace, so "DOI: 10.1000/ABC" and "https://doi.org/10.1000/abc"
// compare equal.
func DOI(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	lower := strings.ToLower(raw)

	for _, prefix := range []string{
		"https://doi.org/",
		"http://doi.org/",
		"https://dx.doi.org/",
		"http://dx.doi.org/",
		"doi.org/",
		"doi:",
	} {
		if strings.HasPrefix(lower, prefix) {
			lower = lower[len(prefix):]
			break
		}
	}

	return strings.TrimSpace(lower)
}
