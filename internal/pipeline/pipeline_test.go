package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/citeflex/citeflex/internal/models"
	"github.com/citeflex/citeflex/internal/providers"
	"github.com/citeflex/citeflex/internal/resolver"
)

// fakeProvider is a hand-written stand-in for providers.Provider.
type fakeProvider struct {
	metadata *models.CitationMetadata
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Search(_ context.Context, q providers.Query) (*providers.Result, error) {
	if f.metadata == nil {
		return nil, nil
	}
	m := *f.metadata
	return &providers.Result{Metadata: &m}, nil
}

func banduraMetadata() *models.CitationMetadata {
	return &models.CitationMetadata{
		Kind:      models.KindJournal,
		Title:     "Self-efficacy: Toward a unifying theory of behavioral change",
		Authors:   []string{"Bandura, Albert"},
		Year:      "1977",
		Container: "Psychological Review",
		Volume:    "84",
		Pages:     "191-215",
	}
}

const noteRewriteEndnotesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:endnotes xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:endnote w:type="separator" w:id="0"><w:p/></w:endnote>
  <w:endnote w:id="1">
    <w:p>
      <w:r><w:rPr><w:rStyle w:val="EndnoteReference"/></w:rPr><w:endnoteRef/></w:r>
      <w:r><w:t xml:space="preserve"> Bandura, A. (1977). Self-efficacy.</w:t></w:r>
    </w:p>
  </w:endnote>
  <w:endnote w:id="2">
    <w:p>
      <w:r><w:rPr><w:rStyle w:val="EndnoteReference"/></w:rPr><w:endnoteRef/></w:r>
      <w:r><w:t xml:space="preserve"> Ibid.</w:t></w:r>
    </w:p>
  </w:endnote>
</w:endnotes>`

const noteRewriteDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <w:body>
    <w:p><w:r><w:t xml:space="preserve">See the discussion at https://example.com/a.</w:t></w:r></w:p>
    <w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>
  </w:body>
</w:document>`

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zipFileContent(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			var buf bytes.Buffer
			_, err = buf.ReadFrom(rc)
			require.NoError(t, err)
			return buf.String()
		}
	}
	t.Fatalf("part %q not found in archive", name)
	return ""
}

func TestNoteRewritePipelineResolvesAndClassifiesSequence(t *testing.T) {
	docBytes := buildZip(t, map[string]string{
		"word/document.xml": noteRewriteDocumentXML,
		"word/endnotes.xml": noteRewriteEndnotesXML,
	})

	federation := resolver.New(
		resolver.DefaultConfig(),
		[]providers.Provider{&fakeProvider{metadata: banduraMetadata()}},
		nil,
		arbor.NewLogger(),
	)
	p := NewNoteRewritePipeline(federation, 4, arbor.NewLogger())

	out, log, err := p.Run(context.Background(), docBytes, "APA (7th ed.)")
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.False(t, log.HasErrors())

	endnotesOut := zipFileContent(t, out, "word/endnotes.xml")
	assert.Contains(t, endnotesOut, "Bandura")
	assert.Contains(t, endnotesOut, "Ibid")

	documentOut := zipFileContent(t, out, "word/document.xml")
	assert.Contains(t, documentOut, "hyperlink")
}

const noteRewritePlainFormEndnotesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:endnotes xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:endnote w:type="separator" w:id="0"><w:p/></w:endnote>
  <w:endnote w:id="1">
    <w:p>
      <w:r><w:rPr><w:rStyle w:val="EndnoteReference"/></w:rPr><w:endnoteRef/></w:r>
      <w:r><w:t xml:space="preserve"> Bandura, Foo, 1977.</w:t></w:r>
    </w:p>
  </w:endnote>
  <w:endnote w:id="2">
    <w:p>
      <w:r><w:rPr><w:rStyle w:val="EndnoteReference"/></w:rPr><w:endnoteRef/></w:r>
      <w:r><w:t xml:space="preserve"> Ibid., 45.</w:t></w:r>
    </w:p>
  </w:endnote>
</w:endnotes>`

func TestNoteRewritePipelineResolvesPlainCommaFormThenIbid(t *testing.T) {
	docBytes := buildZip(t, map[string]string{
		"word/document.xml": noteRewriteDocumentXML,
		"word/endnotes.xml": noteRewritePlainFormEndnotesXML,
	})

	federation := resolver.New(
		resolver.DefaultConfig(),
		[]providers.Provider{&fakeProvider{metadata: banduraMetadata()}},
		nil,
		arbor.NewLogger(),
	)
	p := NewNoteRewritePipeline(federation, 4, arbor.NewLogger())

	out, log, err := p.Run(context.Background(), docBytes, "APA (7th ed.)")
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.False(t, log.HasErrors())

	endnotesOut := zipFileContent(t, out, "word/endnotes.xml")
	assert.Contains(t, endnotesOut, "Bandura")
	assert.Contains(t, endnotesOut, "Ibid")
}

func TestNoteRewritePipelineMarksUnresolvedNoteAsFailure(t *testing.T) {
	docBytes := buildZip(t, map[string]string{
		"word/document.xml": noteRewriteDocumentXML,
		"word/endnotes.xml": noteRewriteEndnotesXML,
	})

	federation := resolver.New(
		resolver.DefaultConfig(),
		[]providers.Provider{&fakeProvider{metadata: nil}},
		nil,
		arbor.NewLogger(),
	)
	p := NewNoteRewritePipeline(federation, 4, arbor.NewLogger())

	out, log, err := p.Run(context.Background(), docBytes, "APA (7th ed.)")
	require.NoError(t, err)
	require.NotEmpty(t, out)

	endnotesOut := zipFileContent(t, out, "word/endnotes.xml")
	// The raw text is preserved verbatim on resolution failure (S1).
	assert.Contains(t, endnotesOut, "Bandura, A. (1977). Self-efficacy.")
	assert.True(t, log.HasErrors())
}

const authorDateDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <w:body>
    <w:p><w:r><w:t xml:space="preserve">Self-regulation is well studied (Bandura, 1977).</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">References</w:t></w:r></w:p>
    <w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>
  </w:body>
</w:document>`

func TestAuthorDatePipelineExtractsResolvesAndSplices(t *testing.T) {
	docBytes := buildZip(t, map[string]string{
		"word/document.xml": authorDateDocumentXML,
	})

	federation := resolver.New(
		resolver.DefaultConfig(),
		[]providers.Provider{&fakeProvider{metadata: banduraMetadata()}},
		nil,
		arbor.NewLogger(),
	)
	p := NewAuthorDatePipeline(federation, 4, arbor.NewLogger())

	out, result, log, err := p.Run(context.Background(), docBytes, "APA (7th ed.)")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, log.HasErrors())

	assert.Equal(t, 1, result.CitationsFound)
	assert.Equal(t, 1, result.CitationsResolved)
	assert.Equal(t, 0, result.CitationsFailed)
	require.Len(t, result.References, 1)
	assert.Contains(t, result.References[0].Formatted, "Bandura")

	documentOut := zipFileContent(t, out, "word/document.xml")
	assert.Contains(t, documentOut, "Bandura")
}

func TestSplitCitationFieldsParsesParenthesizedForm(t *testing.T) {
	author, year, secondAuthor := splitCitationFields("Bandura, A. (1977). Self-efficacy.")
	assert.Equal(t, "Bandura", author)
	assert.Equal(t, "1977", year)
	assert.Equal(t, "", secondAuthor)
}

func TestSplitCitationFieldsParsesParenthesizedTwoAuthorForm(t *testing.T) {
	author, year, secondAuthor := splitCitationFields("Bandura, A., & Walters, R. (1963). Social learning.")
	assert.Equal(t, "Bandura", author)
	assert.Equal(t, "1963", year)
	assert.Equal(t, "Walters", secondAuthor)
}

func TestSplitCitationFieldsParsesPlainCommaForm(t *testing.T) {
	author, year, secondAuthor := splitCitationFields("Jones, Foo, 2001.")
	assert.Equal(t, "Jones", author)
	assert.Equal(t, "2001", year)
	assert.Equal(t, "", secondAuthor)
}

func TestSplitCitationFieldsParsesPlainCommaFormWithNoDateMarker(t *testing.T) {
	author, year, secondAuthor := splitCitationFields("Smith, Bar, n.d.")
	assert.Equal(t, "Smith", author)
	assert.Equal(t, "n.d.", year)
	assert.Equal(t, "", secondAuthor)
}

func TestSplitCitationFieldsRejectsUnrecognizedShape(t *testing.T) {
	author, year, secondAuthor := splitCitationFields("Ibid., 45")
	assert.Equal(t, "", author)
	assert.Equal(t, "", year)
	assert.Equal(t, "", secondAuthor)
}

func TestAuthorDatePipelineRecordsResolutionMiss(t *testing.T) {
	docBytes := buildZip(t, map[string]string{
		"word/document.xml": authorDateDocumentXML,
	})

	federation := resolver.New(
		resolver.DefaultConfig(),
		[]providers.Provider{&fakeProvider{metadata: nil}},
		nil,
		arbor.NewLogger(),
	)
	p := NewAuthorDatePipeline(federation, 4, arbor.NewLogger())

	_, result, log, err := p.Run(context.Background(), docBytes, "APA (7th ed.)")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 1, result.CitationsFailed)
	assert.True(t, log.HasErrors())
}
