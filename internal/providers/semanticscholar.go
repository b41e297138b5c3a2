package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/citeflex/citeflex/internal/models"
)

// SemanticScholarProvider queries the Semantic Scholar graph API, strong
// for psychology/social-science coverage per the original implementation.
type SemanticScholarProvider struct {
	client  httpDoer
	baseURL string
	logger  arbor.ILogger
}

func NewSemanticScholarProvider(baseURL string, logger arbor.ILogger) *SemanticScholarProvider {
	if baseURL == "" {
		baseURL = "https://api.semanticscholar.org/graph/v1/paper/search"
	}
	return &SemanticScholarProvider{
		client:  NewRateLimitedClient(8*time.Second, 1, 2),
		baseURL: baseURL,
		logger:  logger,
	}
}

// NewSemanticScholarProviderWithAuth builds a SemanticScholarProvider
// authenticated via OAuth2 client-credentials, for the partner-program
// API tier that requires an application token.
func NewSemanticScholarProviderWithAuth(ctx context.Context, baseURL, clientID, clientSecret, tokenURL string, logger arbor.ILogger) *SemanticScholarProvider {
	if baseURL == "" {
		baseURL = "https://api.semanticscholar.org/graph/v1/paper/search"
	}
	return &SemanticScholarProvider{
		client:  NewAuthenticatedClient(ctx, clientID, clientSecret, tokenURL, nil, 1, 2),
		baseURL: baseURL,
		logger:  logger,
	}
}

func (p *SemanticScholarProvider) Name() string { return "semantic_scholar" }

type semanticScholarResponse struct {
	Data []semanticScholarPaper `json:"data"`
}

type semanticScholarPaper struct {
	Title   string `json:"title"`
	Year    int    `json:"year"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Venue          string `json:"venue"`
	ExternalIDs    struct {
		DOI string `json:"DOI"`
	} `json:"externalIds"`
}

// Search issues a structured "author:X year:Y" query, the field-accepting
// convention Semantic Scholar's query syntax supports (spec.md §4.3).
func (p *SemanticScholarProvider) Search(ctx context.Context, q Query) (*Result, error) {
	query := fmt.Sprintf("author:%s year:%s", q.Author, q.Year)

	u := p.baseURL + "?" + url.Values{
		"query":  {query},
		"limit":  {"3"},
		"fields": {"title,year,authors,venue,externalIds"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar: building request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar: unexpected status %d", resp.StatusCode)
	}

	var decoded semanticScholarResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("semantic scholar: decoding response: %w", err)
	}

	if len(decoded.Data) == 0 {
		return nil, nil
	}

	paper := decoded.Data[0]
	metadata := &models.CitationMetadata{
		Kind:         models.KindJournal,
		Title:        paper.Title,
		Container:    paper.Venue,
		DOI:          paper.ExternalIDs.DOI,
		SourceEngine: p.Name(),
	}
	if paper.Year > 0 {
		metadata.Year = strconv.Itoa(paper.Year)
	}
	for _, a := range paper.Authors {
		metadata.Authors = append(metadata.Authors, a.Name)
	}

	return &Result{Metadata: metadata}, nil
}
