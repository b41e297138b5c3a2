package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
)

// AnthropicOracle backs the contextual-guessing fallback with a Claude
// chat completion, asked to return a structured citation guess as JSON.
// Grounded on the teacher service's ClaudeService client construction and
// request/response shape (internal/services/llm/claude_service.go).
type AnthropicOracle struct {
	client    *anthropic.Client
	model     string
	timeout   time.Duration
	maxTokens int64
	logger    arbor.ILogger
}

// NewAnthropicOracle builds an AnthropicOracle. model defaults to a
// current Claude model when empty.
func NewAnthropicOracle(apiKey, model string, timeout time.Duration, logger arbor.ILogger) *AnthropicOracle {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &AnthropicOracle{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		timeout:   timeout,
		maxTokens: 1024,
		logger:    logger,
	}
}

func (o *AnthropicOracle) Name() string { return "claude_oracle" }

func (o *AnthropicOracle) Guess(ctx context.Context, q Query) (*OracleGuess, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	prompt := buildOraclePrompt(q)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: o.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	resp, err := o.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return nil, fmt.Errorf("claude oracle: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	guess, err := parseOracleJSON(text.String())
	if err != nil {
		o.logger.Warn().Err(err).Str("query", prompt).Msg("claude oracle: could not parse structured guess")
		return nil, nil
	}

	return guess, nil
}

func buildOraclePrompt(q Query) string {
	var b strings.Builder
	b.WriteString("Identify the scholarly work referenced by this citation fragment. ")
	b.WriteString("Respond with ONLY a JSON object with keys: type, title, authors (array of ")
	b.WriteString("surname-first strings), year, journal, volume, issue, pages, publisher, doi, confidence (0-1).\n\n")
	if q.SecondAuthor != "" {
		fmt.Fprintf(&b, "Citation: %s & %s (%s)\n", q.Author, q.SecondAuthor, q.Year)
	} else {
		fmt.Fprintf(&b, "Citation: %s (%s)\n", q.Author, q.Year)
	}
	if q.Context != "" {
		fmt.Fprintf(&b, "\nContext: this citation appears in a document about %s.\n", q.Context)
	}
	return b.String()
}

type oracleResponseJSON struct {
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Year       string   `json:"year"`
	Journal    string   `json:"journal"`
	Volume     string   `json:"volume"`
	Issue      string   `json:"issue"`
	Pages      string   `json:"pages"`
	Publisher  string   `json:"publisher"`
	DOI        string   `json:"doi"`
	Confidence float64  `json:"confidence"`
}

// parseOracleJSON extracts and validates the tagged guess schema from raw
// model output, tolerating surrounding prose by locating the outermost
// JSON object.
func parseOracleJSON(raw string) (*OracleGuess, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object found in oracle response")
	}

	var decoded oracleResponseJSON
	if err := json.Unmarshal([]byte(raw[start:end+1]), &decoded); err != nil {
		return nil, fmt.Errorf("decoding oracle JSON: %w", err)
	}

	return &OracleGuess{
		Kind:       decoded.Type,
		Title:      decoded.Title,
		Authors:    decoded.Authors,
		Year:       decoded.Year,
		Container:  decoded.Journal,
		Volume:     decoded.Volume,
		Issue:      decoded.Issue,
		Pages:      decoded.Pages,
		Publisher:  decoded.Publisher,
		DOI:        decoded.DOI,
		Confidence: decoded.Confidence,
	}, nil
}

// parseConfidence is a defensive helper for oracle backends that return
// confidence as a numeric string rather than a JSON number.
func parseConfidence(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}
