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

// CrossrefProvider queries the Crossref works API, the federation's
// primary DOI-bearing source.
type CrossrefProvider struct {
	client  httpDoer
	baseURL string
	logger  arbor.ILogger
}

// NewCrossrefProvider builds a CrossrefProvider. baseURL defaults to the
// public Crossref API when empty.
func NewCrossrefProvider(baseURL string, logger arbor.ILogger) *CrossrefProvider {
	if baseURL == "" {
		baseURL = "https://api.crossref.org/works"
	}
	return &CrossrefProvider{
		client:  NewRateLimitedClient(8*time.Second, 5, 5),
		baseURL: baseURL,
		logger:  logger,
	}
}

// NewCrossrefProviderWithAuth builds a CrossrefProvider authenticated via
// OAuth2 client-credentials, for deployments fronting Crossref with an
// internal API gateway rather than calling the public polite pool
// directly.
func NewCrossrefProviderWithAuth(ctx context.Context, baseURL, clientID, clientSecret, tokenURL string, logger arbor.ILogger) *CrossrefProvider {
	if baseURL == "" {
		baseURL = "https://api.crossref.org/works"
	}
	return &CrossrefProvider{
		client:  NewAuthenticatedClient(ctx, clientID, clientSecret, tokenURL, nil, 5, 5),
		baseURL: baseURL,
		logger:  logger,
	}
}

func (p *CrossrefProvider) Name() string { return "crossref" }

type crossrefResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	Title   []string `json:"title"`
	Author  []struct {
		Family string `json:"family"`
		Given  string `json:"given"`
	} `json:"author"`
	Published struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"published"`
	ContainerTitle []string `json:"container-title"`
	Volume         string   `json:"volume"`
	Issue          string   `json:"issue"`
	Page           string   `json:"page"`
	DOI            string   `json:"DOI"`
	Publisher      string   `json:"publisher"`
}

// Search issues a Crossref free-text "query" lookup for author+year,
// the concatenated-query convention Crossref's API accepts (spec.md
// §4.3's "plain concatenated queries" case).
func (p *CrossrefProvider) Search(ctx context.Context, q Query) (*Result, error) {
	query := q.Author + " " + q.Year
	if q.SecondAuthor != "" {
		query = q.Author + " " + q.SecondAuthor + " " + q.Year
	}

	u := p.baseURL + "?" + url.Values{
		"query": {query},
		"rows":  {"3"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("crossref: building request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crossref: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crossref: unexpected status %d", resp.StatusCode)
	}

	var decoded crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("crossref: decoding response: %w", err)
	}

	if len(decoded.Message.Items) == 0 {
		return nil, nil
	}

	item := decoded.Message.Items[0]

	metadata := &models.CitationMetadata{
		Kind:         models.KindJournal,
		DOI:          item.DOI,
		Volume:       item.Volume,
		Issue:        item.Issue,
		Pages:        item.Page,
		SourceEngine: p.Name(),
	}
	if len(item.Title) > 0 {
		metadata.Title = item.Title[0]
	}
	if len(item.ContainerTitle) > 0 {
		metadata.Container = item.ContainerTitle[0]
	} else if item.Publisher != "" {
		metadata.Container = item.Publisher
	}
	for _, a := range item.Author {
		metadata.Authors = append(metadata.Authors, a.Family+", "+a.Given)
	}
	if len(item.Published.DateParts) > 0 && len(item.Published.DateParts[0]) > 0 {
		metadata.Year = strconv.Itoa(item.Published.DateParts[0][0])
	}

	return &Result{Metadata: metadata}, nil
}
