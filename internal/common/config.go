// Package common carries citeflex's ambient concerns: configuration
// loading, logger setup, and version reporting, grounded on the
// teacher's internal/common package (config.go, logger.go, version.go).
package common

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is citeflex's top-level configuration, loaded from one or more
// TOML files with later files overriding earlier ones (mirrors the
// teacher's LoadFromFiles merge order: default -> file1 -> file2 -> env).
type Config struct {
	Style     string          `toml:"style"` // default citation style name (formatter.Get)
	Resolver  ResolverConfig  `toml:"resolver"`
	Workers   WorkersConfig   `toml:"workers"`
	Logging   LoggingConfig   `toml:"logging"`
	Providers ProvidersConfig `toml:"providers"`
	Oracle    OracleConfig    `toml:"oracle"`
}

// ResolverConfig tunes the citation-resolver federation (spec.md §5).
type ResolverConfig struct {
	FanOutWorkers int           `toml:"fanout_workers"` // per-query provider fan-out pool size (>= 4)
	Timeout       time.Duration `toml:"timeout"`        // overall wall-clock deadline per resolve call
	YearTolerance int           `toml:"year_tolerance"` // allowed +/- year disagreement before a result is dropped
}

// WorkersConfig tunes the two pipelines' Phase-1 concurrency (spec.md §5:
// "N >= 10 concurrent note resolutions").
type WorkersConfig struct {
	NoteRewriteConcurrency int `toml:"note_rewrite_concurrency"`
	AuthorDateConcurrency  int `toml:"author_date_concurrency"`
}

// LoggingConfig mirrors the teacher's LoggingConfig fields relevant to a
// CLI tool (no event-bus fields, since citeflex has no UI to publish to).
type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // e.g. "15:04:05.000"
}

// ProvidersConfig holds per-bibliographic-provider settings. BaseURL lets
// a deployment point at a self-hosted mirror or test double; Enabled
// controls whether the provider is wired into the federation at all.
type ProvidersConfig struct {
	Crossref        ProviderEndpoint `toml:"crossref"`
	OpenAlex        ProviderEndpoint `toml:"openalex"`
	SemanticScholar ProviderEndpoint `toml:"semantic_scholar"`
	WebIndex        ProviderEndpoint `toml:"web_index"`
}

// ProviderEndpoint is one provider's enable flag, base URL, and optional
// OAuth2 client-credentials settings. ClientID/ClientSecret/TokenURL are
// left empty for providers called with the plain public API (the common
// case); when TokenURL is set, the composition root builds an
// OAuth2-authenticated client instead of a plain rate-limited one.
type ProviderEndpoint struct {
	Enabled      bool   `toml:"enabled"`
	BaseURL      string `toml:"base_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
}

// OracleConfig configures the contextual-guessing oracle fallback
// (spec.md §4.3 step 7). Engine selects which backend (anthropic or
// genai) the composition root wires in. The API key is not a config
// field: the CLI reads it from the CITEFLEX_ORACLE_API_KEY environment
// variable.
type OracleConfig struct {
	Enabled bool          `toml:"enabled"`
	Engine  string        `toml:"engine"` // "anthropic" or "genai"
	Model   string        `toml:"model"`
	Timeout time.Duration `toml:"timeout"`
}

// NewDefaultConfig returns citeflex's baseline configuration.
func NewDefaultConfig() *Config {
	return &Config{
		Style: "APA (7th ed.)",
		Resolver: ResolverConfig{
			FanOutWorkers: 4,
			Timeout:       10 * time.Second,
			YearTolerance: 1,
		},
		Workers: WorkersConfig{
			NoteRewriteConcurrency: 10,
			AuthorDateConcurrency:  10,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
		},
		Providers: ProvidersConfig{
			Crossref:        ProviderEndpoint{Enabled: true, BaseURL: "https://api.crossref.org/works"},
			OpenAlex:        ProviderEndpoint{Enabled: true, BaseURL: "https://api.openalex.org/works"},
			SemanticScholar: ProviderEndpoint{Enabled: true, BaseURL: "https://api.semanticscholar.org/graph/v1/paper/search"},
			WebIndex:        ProviderEndpoint{Enabled: false},
		},
		Oracle: OracleConfig{
			Enabled: false,
			Engine:  "anthropic",
			Model:   "claude-haiku-4-5",
			Timeout: 15 * time.Second,
		},
	}
}

// LoadFromFile loads configuration from a single file, or returns the
// defaults if path is empty.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration starting from defaults, merging each
// file in order (later files override earlier ones), then applying
// environment overrides - the same priority chain as the teacher's
// LoadFromFiles: default -> file1 -> ... -> env.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("common: reading config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("common: parsing config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies the small set of environment variables
// citeflex recognizes, taking priority over every config file.
func applyEnvOverrides(config *Config) {
	if style := os.Getenv("CITEFLEX_STYLE"); style != "" {
		config.Style = style
	}
	if level := os.Getenv("CITEFLEX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
