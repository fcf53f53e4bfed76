package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/clauseguard/internal/llm"
	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noFooter    bool
	noRobots    bool
	insecureTLS bool
	httpProxy   string
	httpsProxy  string
	showClauses bool
	readerMode  bool
	topN        int
	categories  []string
	rulesFile   string
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|url|->",
	Short: "Analyze one contract and report risky clauses",
	Long: `Analyze reads one contract and:
- Splits it into clauses
- Predicts the contract type (NDA, employment, lease, service, sales)
- Flags risky clauses against the rule table, in English and Hindi
- Scores overall risk on a 0-100 index
- Pulls out amounts, dates and jurisdictions

The source is a text or HTML file, an http(s) URL, or "-" for stdin.

Example:
  clauseguard analyze lease.txt
  clauseguard analyze https://example.com/terms --json report.json --md report.md
  cat nda.txt | clauseguard analyze - --llm --llm-provider ollama --llm-model llama3.1`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout (also caps the HTTP timeout)")
	addAnalysisFlags(analyzeCmd.Flags())
}

// addAnalysisFlags registers the flags shared by analyze and batch
func addAnalysisFlags(flags *pflag.FlagSet) {
	flags.StringVar(&userAgent, "ua", "", "HTTP User-Agent for URL sources")
	flags.Int64Var(&maxBytes, "max-bytes", 0, "max document bytes to read")
	flags.BoolVar(&noCache, "no-cache", false, "disable fetch cache (force fresh fetch)")
	flags.BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	flags.BoolVar(&noRobots, "no-robots", false, "do not check robots.txt before fetching URLs")
	flags.BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	flags.StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	flags.StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	flags.BoolVar(&readerMode, "reader-mode", false, "use readability to find the main text of HTML pages without a <main> element")
	flags.BoolVar(&showClauses, "show-clauses", false, "include the per-clause table in Markdown reports")
	flags.IntVar(&topN, "top", 0, "number of top risks to list")
	flags.StringSliceVar(&categories, "categories", nil, "only check rules in these categories (e.g. termination,liability)")
	flags.StringVar(&rulesFile, "rules", "", "rule table YAML (default: built-in rules)")

	// LLM flags
	flags.BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	flags.StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	flags.StringVar(&llmModel, "llm-model", "", "LLM model name (default: gpt-4o-mini for openai)")
}

// applyFlags copies explicitly set flags over the resolved configuration
func applyFlags(flags *pflag.FlagSet, cfg *model.Config) error {
	changed := flags.Changed

	if changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if changed("max-bytes") {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	if changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if noRobots {
		cfg.HTTP.RespectRobots = false
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if changed("reader-mode") {
		cfg.Extract.ReaderMode = readerMode
	}
	if changed("show-clauses") {
		cfg.Output.ShowClauses = showClauses
	}
	if changed("top") {
		cfg.Analysis.TopN = topN
	}
	if changed("categories") {
		cfg.Analysis.Categories = categories
	}
	if changed("rules") {
		cfg.Rules.File = rulesFile
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	if llmEnabled {
		cfg.LLM.Provider = strings.ToLower(llmProvider)
		if changed("llm-model") {
			cfg.LLM.Model = llmModel
		}
		cfg.LLM.StrictRules = true // Always enforce from the CLI

		llmCfg := llm.ConfigFromModel(cfg)
		switch cfg.LLM.Provider {
		case "openai":
			if llmCfg.APIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "ollama":
			if llmCfg.Model == "" {
				return fmt.Errorf("--llm-model is required for ollama (e.g. llama3.1:8b)")
			}
		default:
			return fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", llmProvider)
		}
	}

	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg := appConfig
	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return err
	}
	if timeout < cfg.HTTP.Timeout {
		cfg.HTTP.Timeout = timeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", source)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		if pipeline.IsURL(source) {
			fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
			fmt.Fprintf(os.Stderr, "robots.txt: %v\n", cfg.HTTP.RespectRobots)
		}
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	result, err := p.AnalyzeSource(ctx, source)
	if err != nil {
		writeMetrics(p, cfg)
		return fmt.Errorf("analysis failed: %w", err)
	}

	a := result.Analysis
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Split into %d clauses\n", len(a.Report.Clauses))
		fmt.Fprintf(os.Stderr, "✓ Flagged %d risky clause matches\n", len(a.Report.Findings))
		fmt.Fprintf(os.Stderr, "✓ Calculated risk index: %d/100\n", a.Report.Score.Index)
		if a.LLM != nil && a.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM summary using %s/%s\n", a.LLM.Provider, a.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(a, outJSON, outMD, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	writeMetrics(p, cfg)
	return nil
}

// writeMetrics exports metrics when a metrics file is configured. A failed
// export is reported but does not fail the command.
func writeMetrics(p *pipeline.Pipeline, cfg *model.Config) {
	if cfg.Metrics.File == "" {
		return
	}
	if err := p.WriteMetrics(cfg.Metrics.File); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}
