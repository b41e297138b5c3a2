package formatter

import (
	"testing"

	"github.com/citeflex/citeflex/internal/models"
)

func TestAPAFormatFull(t *testing.T) {
	m := &models.CitationMetadata{
		Authors:   []string{"Bandura, Albert"},
		Year:      "1977",
		Title:     "Self-efficacy: Toward a unifying theory of behavioral change",
		Container: "Psychological Review",
		Volume:    "84",
		Issue:     "2",
		Pages:     "191-215",
		DOI:       "10.1037/0033-295X.84.2.191",
	}

	got := NewAPAFormatter().Format(m)
	want := "Bandura, Albert (1977). Self-efficacy: Toward a unifying theory of behavioral change. <i>Psychological Review</i>, 84(2), 191-215. https://doi.org/10.1037/0033-295X.84.2.191"
	if got != want {
		t.Errorf("Format() =\n%q\nwant\n%q", got, want)
	}
}

func TestAPAFormatShort(t *testing.T) {
	m := &models.CitationMetadata{Authors: []string{"Jones, Foo"}, Year: "2001"}
	got := NewAPAFormatter().FormatShort(m)
	want := "Jones, 2001."
	if got != want {
		t.Errorf("FormatShort() = %q, want %q", got, want)
	}
}

func TestAPAFormatIbid(t *testing.T) {
	f := NewAPAFormatter()
	if got := f.FormatIbid(""); got != "Ibid." {
		t.Errorf("FormatIbid(\"\") = %q, want %q", got, "Ibid.")
	}
	if got := f.FormatIbid("45"); got != "Ibid., 45." {
		t.Errorf("FormatIbid(45) = %q, want %q", got, "Ibid., 45.")
	}
}

func TestGetFallsBackToAPA(t *testing.T) {
	if Get("Some Unregistered Style") != Get("APA (7th ed.)") {
		t.Error("unknown style names must fall back to APA")
	}
}

func TestHeadingFor(t *testing.T) {
	tests := map[string]string{
		"APA (7th ed.)":        "References",
		"AAA (Anthropology)":   "References Cited",
		"Turabian Author-Date": "Bibliography",
	}
	for style, want := range tests {
		if got := HeadingFor(style); got != want {
			t.Errorf("HeadingFor(%q) = %q, want %q", style, got, want)
		}
	}
}

func TestSortReferences(t *testing.T) {
	entries := []models.ReferenceEntry{
		{Citation: models.AuthorYearCitation{Surname: "Smith", Year: "2010"}},
		{Citation: models.AuthorYearCitation{Surname: "Jones", Year: "2001"}},
		{Citation: models.AuthorYearCitation{Surname: "jones", Year: "1999"}},
	}
	SortReferences(entries)

	want := []string{"jones", "Jones", "Smith"}
	for i, e := range entries {
		if e.Citation.Surname != want[i] {
			t.Errorf("entries[%d].Surname = %q, want %q", i, e.Citation.Surname, want[i])
		}
	}
}
