package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/citeflex/citeflex/internal/models"
)

// OpenAlexProvider queries the OpenAlex works API, a broad open-access
// index used as the federation's second structured source.
type OpenAlexProvider struct {
	client  *RateLimitedClient
	baseURL string
	logger  arbor.ILogger
}

func NewOpenAlexProvider(baseURL string, logger arbor.ILogger) *OpenAlexProvider {
	if baseURL == "" {
		baseURL = "https://api.openalex.org/works"
	}
	return &OpenAlexProvider{
		client:  NewRateLimitedClient(8*time.Second, 5, 5),
		baseURL: baseURL,
		logger:  logger,
	}
}

func (p *OpenAlexProvider) Name() string { return "openalex" }

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	Title                 string `json:"title"`
	PublicationYear       int    `json:"publication_year"`
	DOI                   string `json:"doi"`
	Authorships           []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
	PrimaryLocation struct {
		Source struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
	} `json:"primary_location"`
	Biblio struct {
		Volume    string `json:"volume"`
		Issue     string `json:"issue"`
		FirstPage string `json:"first_page"`
		LastPage  string `json:"last_page"`
	} `json:"biblio"`
}

// Search issues a plain concatenated query - OpenAlex's "search" param
// does full-text ranking rather than structured field queries.
func (p *OpenAlexProvider) Search(ctx context.Context, q Query) (*Result, error) {
	query := q.Author + " " + q.Year
	if q.SecondAuthor != "" {
		query = q.Author + " " + q.SecondAuthor + " " + q.Year
	}

	u := p.baseURL + "?" + url.Values{
		"search":   {query},
		"per-page": {"3"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("openalex: building request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openalex: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openalex: unexpected status %d", resp.StatusCode)
	}

	var decoded openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("openalex: decoding response: %w", err)
	}

	if len(decoded.Results) == 0 {
		return nil, nil
	}

	work := decoded.Results[0]
	metadata := &models.CitationMetadata{
		Kind:         models.KindJournal,
		Title:        work.Title,
		Container:    work.PrimaryLocation.Source.DisplayName,
		Volume:       work.Biblio.Volume,
		Issue:        work.Biblio.Issue,
		DOI:          strings.TrimPrefix(work.DOI, "https://doi.org/"),
		SourceEngine: p.Name(),
	}
	if work.Biblio.FirstPage != "" {
		metadata.Pages = work.Biblio.FirstPage
		if work.Biblio.LastPage != "" {
			metadata.Pages += "-" + work.Biblio.LastPage
		}
	}
	if work.PublicationYear > 0 {
		metadata.Year = strconv.Itoa(work.PublicationYear)
	}
	for _, a := range work.Authorships {
		metadata.Authors = append(metadata.Authors, a.Author.DisplayName)
	}

	return &Result{Metadata: metadata}, nil
}
