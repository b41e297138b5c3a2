package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citeflex/citeflex/internal/models"
)

const endnotesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:endnotes xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:endnote w:type="separator" w:id="0"><w:p/></w:endnote>
  <w:endnote w:type="continuationSeparator" w:id="-1"><w:p/></w:endnote>
  <w:endnote w:id="1">
    <w:p>
      <w:pPr><w:pStyle w:val="EndnoteText"/></w:pPr>
      <w:r><w:rPr><w:rStyle w:val="EndnoteReference"/></w:rPr><w:endnoteRef/></w:r>
      <w:r><w:t xml:space="preserve"> Bandura, A. (1977). Self-efficacy.</w:t></w:r>
    </w:p>
  </w:endnote>
  <w:endnote w:id="2">
    <w:p>
      <w:r><w:t xml:space="preserve"> Ibid.</w:t></w:r>
    </w:p>
  </w:endnote>
</w:endnotes>`

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <w:body>
    <w:p><w:r><w:t xml:space="preserve">See https://example.com/a, for details.</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">References</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Old Author. (1999). Old title.</w:t></w:r></w:p>
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

func openTestDocument(t *testing.T) *Document {
	t.Helper()
	data := buildZip(t, map[string]string{
		pathDocument: documentXML,
		pathEndnotes: endnotesXML,
	})
	doc, err := Open(data)
	require.NoError(t, err)
	return doc
}

func TestReadNotesSkipsSystemMarkers(t *testing.T) {
	doc := openTestDocument(t)

	notes, err := doc.ReadNotes(models.NoteKindEndnote)
	require.NoError(t, err)

	require.Len(t, notes, 2)
	assert.Equal(t, 1, notes[0].ID)
	assert.Contains(t, notes[0].Text, "Bandura")
	assert.Equal(t, 2, notes[1].ID)
}

func TestWriteNotePreservesParagraphPropertiesAndReferenceRun(t *testing.T) {
	doc := openTestDocument(t)

	err := doc.WriteNote(models.NoteKindEndnote, 1, "Bandura, A. (1977). <i>Self-efficacy.</i>")
	require.NoError(t, err)

	out, err := doc.Bytes()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	var endnotesOut string
	for _, f := range zr.File {
		if f.Name == pathEndnotes {
			rc, err := f.Open()
			require.NoError(t, err)
			b, err := io.ReadAll(rc)
			rc.Close()
			require.NoError(t, err)
			endnotesOut = string(b)
		}
	}

	assert.Contains(t, endnotesOut, "EndnoteText")
	assert.Contains(t, endnotesOut, "endnoteRef")
	assert.Contains(t, endnotesOut, "<w:i></w:i>")
	assert.Contains(t, endnotesOut, "Self-efficacy.")
}

func TestWriteNoteSynthesizesMissingReferenceRun(t *testing.T) {
	doc := openTestDocument(t)

	err := doc.WriteNote(models.NoteKindEndnote, 2, "Ibid.")
	require.NoError(t, err)

	root, err := doc.part(pathEndnotes)
	require.NoError(t, err)
	var note2 *node
	for _, n := range findDescendants(root, "endnote") {
		if attr(n, "id") == "2" {
			note2 = n
		}
	}
	require.NotNil(t, note2)
	para := findElement(note2, "p")
	require.NotNil(t, para)
	assert.NotNil(t, findReferenceRun(para, "endnoteRef"))

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestSpliceReferencesReplacesExistingSection(t *testing.T) {
	doc := openTestDocument(t)

	err := doc.SpliceReferences("APA (7th ed.)", []string{"Bandura, A. (1977). Self-efficacy."})
	require.NoError(t, err)

	_, err = doc.Bytes()
	require.NoError(t, err)

	root, err := doc.part(pathDocument)
	require.NoError(t, err)
	body := firstDescendant(root, "body")
	require.NotNil(t, body)

	text := textContent(body)
	assert.NotContains(t, text, "Old Author")
	assert.Contains(t, text, "References")
	assert.Contains(t, text, "Bandura, A. (1977). Self-efficacy.")

	// sectPr must survive the splice.
	assert.NotNil(t, findElement(body, "sectPr"))
}

func TestActivateLinksWrapsURLAndTrimsTrailingPunctuation(t *testing.T) {
	doc := openTestDocument(t)

	err := doc.ActivateLinks()
	require.NoError(t, err)

	root, err := doc.part(pathDocument)
	require.NoError(t, err)
	body := firstDescendant(root, "body")
	require.NotNil(t, body)

	links := findDescendants(body, "hyperlink")
	require.Len(t, links, 1)
	assert.NotEmpty(t, attr(links[0], "id"))

	relsRoot, err := doc.part(pathDocumentRels)
	require.NoError(t, err)
	rels := findDescendants(relsRoot, "Relationship")
	require.Len(t, rels, 1)
	assert.Equal(t, "https://example.com/a", attr(rels[0], "Target"))
	assert.Equal(t, relTypeHyperlink, attr(rels[0], "Type"))

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestActivateLinksReusesRelationshipOnSecondCall(t *testing.T) {
	doc := openTestDocument(t)

	require.NoError(t, doc.ActivateLinks())

	relsRoot, err := doc.part(pathDocumentRels)
	require.NoError(t, err)
	first := findDescendants(relsRoot, "Relationship")
	require.Len(t, first, 1)
	firstID := attr(first[0], "Id")

	// A second pass must not double-wrap or duplicate the relationship,
	// since the run is now inside a <w:hyperlink> element.
	require.NoError(t, doc.ActivateLinks())
	second := findDescendants(relsRoot, "Relationship")
	require.Len(t, second, 1)
	assert.Equal(t, firstID, attr(second[0], "Id"))
}
