package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

// GenAIOracle backs the contextual-guessing fallback with Gemini instead
// of Claude, selected by config so the oracle is not hard-wired to one
// vendor (spec.md §9's "deferred/lazy provider construction" design note,
// re-architected here as an explicit alternate Oracle implementation
// rather than an import-time circular-dependency workaround).
type GenAIOracle struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  arbor.ILogger
}

// NewGenAIOracle builds a GenAIOracle against the Gemini API backend.
func NewGenAIOracle(ctx context.Context, apiKey, model string, timeout time.Duration, logger arbor.ILogger) (*GenAIOracle, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai oracle: initializing client: %w", err)
	}

	return &GenAIOracle{client: client, model: model, timeout: timeout, logger: logger}, nil
}

func (o *GenAIOracle) Name() string { return "genai_oracle" }

func (o *GenAIOracle) Guess(ctx context.Context, q Query) (*OracleGuess, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	prompt := buildOraclePrompt(q)

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	}

	resp, err := o.client.Models.GenerateContent(timeoutCtx, o.model, []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}, config)
	if err != nil {
		return nil, fmt.Errorf("genai oracle: %w", err)
	}

	text := resp.Text()

	guess, err := parseOracleJSON(text)
	if err != nil {
		o.logger.Warn().Err(err).Msg("genai oracle: could not parse structured guess")
		return nil, nil
	}

	return guess, nil
}
