package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"

	"github.com/citeflex/citeflex/internal/models"
)

// WebIndexProvider is the federation's fallback web-index source: it runs
// a search-engine-shaped query and scrapes the first result snippet with
// goquery when no structured API surfaces a match. As a web-index source
// it lacks a reliable DOI, which the resolver penalizes per spec.md §4.3
// step 4.
type WebIndexProvider struct {
	client     *RateLimitedClient
	searchURL  string // e.g. a SERP endpoint template with %s for the query
	logger     arbor.ILogger
}

func NewWebIndexProvider(searchURL string, logger arbor.ILogger) *WebIndexProvider {
	return &WebIndexProvider{
		client:    NewRateLimitedClient(8*time.Second, 2, 2),
		searchURL: searchURL,
		logger:    logger,
	}
}

func (p *WebIndexProvider) Name() string { return "web_index" }

var titleYearPattern = regexp.MustCompile(`(.+?)\s*\((\d{4})\)`)

// markdownStrip trims markdown emphasis/link syntax out of a converted
// snippet, since a search-result heading like "<b>Bandura</b> (1977)"
// would otherwise survive conversion as "**Bandura** (1977)".
var markdownStrip = regexp.MustCompile(`[*_` + "`" + `]|\[([^\]]*)\]\([^)]*\)`)

// snippetText converts a result heading's HTML into plain text via the
// same html-to-markdown converter the crawler service uses, falling back
// to goquery's own tag-stripped .Text() if conversion fails or yields
// nothing usable.
func snippetText(s *goquery.Selection) string {
	html, err := s.Html()
	if err != nil || strings.TrimSpace(html) == "" {
		return strings.TrimSpace(s.Text())
	}

	converter := md.NewConverter("", true, nil)
	converted, err := converter.ConvertString(html)
	if err != nil {
		return strings.TrimSpace(s.Text())
	}

	plain := strings.TrimSpace(markdownStrip.ReplaceAllString(converted, "$1"))
	if plain == "" {
		return strings.TrimSpace(s.Text())
	}
	return plain
}

func (p *WebIndexProvider) Search(ctx context.Context, q Query) (*Result, error) {
	if p.searchURL == "" {
		return nil, nil
	}

	query := q.Author + " " + q.Year
	if q.SecondAuthor != "" {
		query = q.Author + " " + q.SecondAuthor + " " + q.Year
	}

	u := fmt.Sprintf(p.searchURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("web index: building request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web index: request failed: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("web index: parsing results page: %w", err)
	}

	var title, year string
	doc.Find(".result, .g, article").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := snippetText(s.Find("h3, .title").First())
		if m := titleYearPattern.FindStringSubmatch(text); m != nil {
			title, year = strings.TrimSpace(m[1]), m[2]
			return false
		}
		return true
	})

	if title == "" {
		return nil, nil
	}

	return &Result{Metadata: &models.CitationMetadata{
		Kind:         models.KindGeneric,
		Title:        title,
		Year:         year,
		Authors:      []string{q.Author},
		SourceEngine: p.Name(),
	}}, nil
}
