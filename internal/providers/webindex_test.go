package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestSnippetTextStripsMarkup(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div class="result"><h3><b>Bandura</b>, A. (1977)</h3></div>`))
	require.NoError(t, err)

	got := snippetText(doc.Find("h3").First())
	assert.Equal(t, "Bandura, A. (1977)", got)
}

func TestSnippetTextFallsBackOnEmptyHTML(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<h3></h3>`))
	require.NoError(t, err)

	got := snippetText(doc.Find("h3").First())
	assert.Equal(t, "", got)
}

func TestWebIndexProviderSearchParsesResultPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<div class="result"><h3>Self-efficacy theory (1977)</h3></div>
		</body></html>`))
	}))
	defer server.Close()

	p := NewWebIndexProvider(server.URL+"?q=%s", arbor.NewLogger())

	result, err := p.Search(context.Background(), Query{Author: "Bandura", Year: "1977"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Self-efficacy theory", result.Metadata.Title)
	assert.Equal(t, "1977", result.Metadata.Year)
}

func TestWebIndexProviderSearchReturnsNilWithoutSearchURL(t *testing.T) {
	p := NewWebIndexProvider("", arbor.NewLogger())

	result, err := p.Search(context.Background(), Query{Author: "Bandura", Year: "1977"})
	require.NoError(t, err)
	assert.Nil(t, result)
}
