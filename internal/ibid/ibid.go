// Package ibid recognizes explicit back-reference tokens ("ibid.", "id.",
// etc.) in a raw note and extracts any pinpoint page range they carry.
package ibid

import (
	"regexp"
	"strings"
)

// pattern matches, case-insensitively, one of the accepted ibid tokens
// followed optionally by a separator (",", ".", or "at"), an optional
// "p."/"pp." marker, and an optional page range, with an optional
// trailing period.
var pattern = regexp.MustCompile(`(?i)^(?:ibid\.?|ibidem|id\.?)` +
	`(?:\s*(?:,|\.|at)\s*(?:pp?\.\s*)?(\d+(?:\s*[-\x{2013}]\s*\d+)?))?` +
	`\.?$`)

// Recognize classifies raw as an ibid token after trimming leading and
// trailing whitespace. It never panics; non-matching input yields
// (false, "", false).
func Recognize(raw string) (isIbid bool, pinpoint string, ok bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false, "", false
	}

	m := pattern.FindStringSubmatch(trimmed)
	if m == nil {
		return false, "", false
	}

	if m[1] == "" {
		return true, "", false
	}
	return true, strings.Join(strings.Fields(m[1]), ""), true
}

// ExtractPinpoint returns the captured pinpoint range for raw, or ("",
// false) if raw is not an ibid token or carries no pinpoint.
func ExtractPinpoint(raw string) (string, bool) {
	_, pinpoint, ok := Recognize(raw)
	return pinpoint, ok
}
