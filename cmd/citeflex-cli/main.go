// Command citeflex-cli runs one of citeflex's two document pipelines
// against a word-processing file on disk, grounded on the teacher's
// cmd/quaero/main.go startup sequence (load config -> apply CLI
// overrides -> init logger -> run).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/citeflex/citeflex/internal/common"
	"github.com/citeflex/citeflex/internal/models"
	"github.com/citeflex/citeflex/internal/pipeline"
	"github.com/citeflex/citeflex/internal/providers"
	"github.com/citeflex/citeflex/internal/resolver"
	"github.com/citeflex/citeflex/internal/resultlog"
)

// configPaths is a custom flag type allowing multiple -config flags,
// mirroring the teacher's cmd/quaero/main.go configPaths type.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	mode         = flag.String("mode", "note-rewrite", "Pipeline to run: \"note-rewrite\" or \"author-date\"")
	style        = flag.String("style", "", "Citation style name (overrides config)")
	inputPath    = flag.String("in", "", "Input .docx path")
	outputPath   = flag.String("out", "", "Output .docx path")
	progressAddr = flag.String("progress-addr", "", "Optional host:port to serve a /progress websocket on while the pipeline runs")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (repeatable, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("citeflex version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence: 1. load config, 2. apply CLI overrides,
	// 3. initialize logger, 4. run the requested pipeline.
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}

	if *style != "" {
		config.Style = *style
	}

	logger := common.SetupLogger(config)

	if *inputPath == "" || *outputPath == "" {
		logger.Fatal().Msg("both -in and -out are required")
		os.Exit(1)
	}

	docBytes, err := os.ReadFile(*inputPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *inputPath).Msg("failed to read input document")
		os.Exit(1)
	}

	federation := buildFederation(config, logger)

	var streamer *common.ProgressStreamer
	if *progressAddr != "" {
		streamer = common.NewProgressStreamer(logger)
		mux := http.NewServeMux()
		mux.HandleFunc("/progress", streamer.Handler)
		server := &http.Server{Addr: *progressAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn().Err(err).Msg("progress server stopped")
			}
		}()
		defer streamer.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var out []byte
	var log *resultlog.Log
	switch *mode {
	case "note-rewrite":
		p := pipeline.NewNoteRewritePipeline(federation, config.Workers.NoteRewriteConcurrency, logger)
		if streamer != nil {
			p.SetProgress(streamer.Func())
		}
		out, log, err = p.Run(ctx, docBytes, config.Style)
		if log != nil {
			logger.Info().Int("errors", log.ErrorCount()).Msg("note-rewrite pipeline finished")
		}
	case "author-date":
		p := pipeline.NewAuthorDatePipeline(federation, config.Workers.AuthorDateConcurrency, logger)
		if streamer != nil {
			p.SetProgress(streamer.Func())
		}
		var result *models.ProcessingResult
		out, result, log, err = p.Run(ctx, docBytes, config.Style)
		if result != nil {
			logger.Info().
				Int("found", result.CitationsFound).
				Int("resolved", result.CitationsResolved).
				Int("failed", result.CitationsFailed).
				Msg("author-date pipeline finished")
		}
	default:
		logger.Fatal().Str("mode", *mode).Msg("unknown mode: expected \"note-rewrite\" or \"author-date\"")
		os.Exit(1)
	}

	if err != nil {
		logger.Fatal().Err(err).Msg("pipeline run failed")
		os.Exit(1)
	}

	if err := os.WriteFile(*outputPath, out, 0644); err != nil {
		logger.Fatal().Err(err).Str("path", *outputPath).Msg("failed to write output document")
		os.Exit(1)
	}

	logger.Info().Str("path", *outputPath).Msg("document written")
}

// buildFederation wires the providers and oracle named in config into a
// resolver.Federation. Enabled providers are added in a fixed order
// (Crossref, OpenAlex, Semantic Scholar, web index), which is the order
// the federation uses to break score ties (spec.md §4.3 step 5).
func buildFederation(config *common.Config, logger arbor.ILogger) *resolver.Federation {
	var order []providers.Provider

	if config.Providers.Crossref.Enabled {
		if config.Providers.Crossref.TokenURL != "" {
			order = append(order, providers.NewCrossrefProviderWithAuth(context.Background(),
				config.Providers.Crossref.BaseURL, config.Providers.Crossref.ClientID,
				config.Providers.Crossref.ClientSecret, config.Providers.Crossref.TokenURL, logger))
		} else {
			order = append(order, providers.NewCrossrefProvider(config.Providers.Crossref.BaseURL, logger))
		}
	}
	if config.Providers.OpenAlex.Enabled {
		order = append(order, providers.NewOpenAlexProvider(config.Providers.OpenAlex.BaseURL, logger))
	}
	if config.Providers.SemanticScholar.Enabled {
		if config.Providers.SemanticScholar.TokenURL != "" {
			order = append(order, providers.NewSemanticScholarProviderWithAuth(context.Background(),
				config.Providers.SemanticScholar.BaseURL, config.Providers.SemanticScholar.ClientID,
				config.Providers.SemanticScholar.ClientSecret, config.Providers.SemanticScholar.TokenURL, logger))
		} else {
			order = append(order, providers.NewSemanticScholarProvider(config.Providers.SemanticScholar.BaseURL, logger))
		}
	}
	if config.Providers.WebIndex.Enabled {
		order = append(order, providers.NewWebIndexProvider(config.Providers.WebIndex.BaseURL, logger))
	}

	var oracle providers.Oracle
	if config.Oracle.Enabled {
		apiKey := os.Getenv("CITEFLEX_ORACLE_API_KEY")
		switch config.Oracle.Engine {
		case "genai":
			genaiOracle, err := providers.NewGenAIOracle(context.Background(), apiKey, config.Oracle.Model, config.Oracle.Timeout, logger)
			if err != nil {
				logger.Warn().Err(err).Msg("failed to initialize genai oracle, continuing without oracle fallback")
			} else {
				oracle = genaiOracle
			}
		default:
			oracle = providers.NewAnthropicOracle(apiKey, config.Oracle.Model, config.Oracle.Timeout, logger)
		}
	}

	cfg := resolver.DefaultConfig()
	cfg.FanOutWorkers = config.Resolver.FanOutWorkers
	cfg.Timeout = config.Resolver.Timeout
	cfg.YearTolerance = config.Resolver.YearTolerance

	return resolver.New(cfg, order, oracle, logger)
}
