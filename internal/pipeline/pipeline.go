// Package pipeline loads contracts from files, stdin or URLs, runs the
// engine over them and renders the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/clauseguard/internal/auditlog"
	"github.com/ppiankov/clauseguard/internal/cache"
	"github.com/ppiankov/clauseguard/internal/classify"
	"github.com/ppiankov/clauseguard/internal/engine"
	"github.com/ppiankov/clauseguard/internal/extract"
	"github.com/ppiankov/clauseguard/internal/extract/adapters"
	"github.com/ppiankov/clauseguard/internal/llm"
	"github.com/ppiankov/clauseguard/internal/logging"
	"github.com/ppiankov/clauseguard/internal/metrics"
	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/segment"
	"github.com/ppiankov/clauseguard/internal/taxonomy"
	"github.com/ppiankov/clauseguard/internal/util"
	"github.com/sirupsen/logrus"
)

// StdinSource is the source name that reads the contract from stdin
const StdinSource = "-"

const robotsTTL = time.Hour

// ErrDocumentTooLarge is returned when stdin or a file is larger than http.max_body_bytes
var ErrDocumentTooLarge = errors.New("document exceeds max_body_bytes")

// Pipeline orchestrates loading, analysis, summary and rendering
type Pipeline struct {
	engine     *engine.Engine
	taxonomy   *taxonomy.Taxonomy
	registry   *adapters.Registry
	fetcher    *Fetcher
	cache      *cache.LayeredCache
	renderer   *Renderer
	summarizer *llm.Summarizer // Optional LLM summarizer (nil if disabled)
	metrics    *metrics.Metrics
	audit      *auditlog.Log // nil if disabled
	config     *model.Config

	stdin  io.Reader
	stdout io.Writer
	now    func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithStdin reads the "-" source from r
func WithStdin(r io.Reader) Option {
	return func(p *Pipeline) { p.stdin = r }
}

// WithStdout sends terminal summaries to w
func WithStdout(w io.Writer) Option {
	return func(p *Pipeline) { p.stdout = w }
}

// WithMetrics records into m instead of a private registry
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	tax, err := loadTaxonomy(cfg.Rules.File)
	if err != nil {
		return nil, err
	}

	engineOpts := []engine.Option{engine.WithTopN(cfg.Analysis.TopN)}
	categories, err := parseCategories(cfg.Analysis.Categories)
	if err != nil {
		return nil, err
	}
	if len(categories) > 0 {
		engineOpts = append(engineOpts, engine.WithCategories(categories...))
	}

	p := &Pipeline{
		engine:   engine.New(tax, engineOpts...),
		taxonomy: tax,
		registry: adapters.NewRegistry(adapters.WithReaderMode(cfg.Extract.ReaderMode)),
		config:   cfg,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.New()
	}

	var fetchOpts []FetcherOption
	if cfg.Cache.Enabled {
		p.cache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		fetchOpts = append(fetchOpts, WithCache(p.cache, cfg.Cache.DiskTTL))
	}
	if cfg.HTTP.RespectRobots {
		robotsClient := util.NewHTTPClient(util.ClientOptions{
			Timeout:    cfg.HTTP.Timeout,
			HTTPProxy:  cfg.HTTP.HTTPProxy,
			HTTPSProxy: cfg.HTTP.HTTPSProxy,
			NoProxy:    cfg.HTTP.NoProxy,
		})
		fetchOpts = append(fetchOpts, WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, robotsClient, robotsTTL)))
	}
	p.fetcher = NewFetcher(cfg.HTTP, fetchOpts...)

	p.renderer = NewRenderer(cfg.Output.IncludeFooter, WithClauses(cfg.Output.ShowClauses), WithOutput(p.stdout))

	// LLM problems never block analysis
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg))
		if err != nil {
			logging.Log.Warnf("failed to initialize LLM provider: %v", err)
		} else {
			p.summarizer = s
		}
	}

	if cfg.Audit.Enabled && cfg.Audit.File != "" {
		p.audit = auditlog.New(cfg.Audit.File)
	}

	return p, nil
}

// parseCategories accepts case-insensitive category names; blanks are skipped
func parseCategories(names []string) ([]model.Category, error) {
	var out []model.Category
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		c := model.Category(name)
		if !c.Valid() {
			return nil, fmt.Errorf("unknown rule category: %s", name)
		}
		out = append(out, c)
	}
	return out, nil
}

func loadTaxonomy(path string) (*taxonomy.Taxonomy, error) {
	if path == "" {
		return taxonomy.Default()
	}
	tax, err := taxonomy.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return tax, nil
}

// Taxonomy returns the rule table in use
func (p *Pipeline) Taxonomy() *taxonomy.Taxonomy {
	return p.taxonomy
}

// Metrics returns the collectors the pipeline records into
func (p *Pipeline) Metrics() *metrics.Metrics {
	return p.metrics
}

// Result contains the complete analysis of one source
type Result struct {
	Analysis *model.Analysis
}

// AnalyzeSource loads source ("-" for stdin, an http(s) URL, or a file
// path), extracts its text and analyzes it
func (p *Pipeline) AnalyzeSource(ctx context.Context, source string) (*Result, error) {
	start := time.Now()

	content, contentType, kind, err := p.load(ctx, source)
	if err != nil {
		p.metrics.ObserveFailure(metrics.ResultError)
		return nil, err
	}

	adapter := p.registry.FindAdapter(source, contentType)
	text, err := adapter.ExtractText(content)
	if err != nil {
		p.metrics.ObserveFailure(metrics.ResultError)
		return nil, fmt.Errorf("extract text (%s): %w", adapter.Name(), err)
	}

	logging.Log.WithFields(logrus.Fields{
		"source":  source,
		"adapter": adapter.Name(),
		"bytes":   len(content),
	}).Debug("loaded contract")

	return p.analyze(ctx, source, kind, text, start)
}

// AnalyzeText analyzes contract text that is already in memory
func (p *Pipeline) AnalyzeText(ctx context.Context, name, text string) (*Result, error) {
	return p.analyze(ctx, name, model.SourceText, text, time.Now())
}

func (p *Pipeline) load(ctx context.Context, source string) ([]byte, string, model.SourceKind, error) {
	switch {
	case source == StdinSource:
		data, err := readCapped(p.stdin, p.fetcher.maxBytes)
		if err != nil {
			return nil, "", "", fmt.Errorf("read stdin: %w", err)
		}
		return data, http.DetectContentType(data), model.SourceStdin, nil

	case IsURL(source):
		result, err := p.fetcher.FetchWithRetry(ctx, source)
		if err != nil {
			return nil, "", "", fmt.Errorf("fetch: %w", err)
		}
		contentType := result.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(result.Content)
		}
		return result.Content, contentType, model.SourceURL, nil

	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, "", "", fmt.Errorf("read file: %w", err)
		}
		defer func() { _ = f.Close() }()
		data, err := readCapped(f, p.fetcher.maxBytes)
		if err != nil {
			return nil, "", "", fmt.Errorf("read file %s: %w", source, err)
		}
		return data, http.DetectContentType(data), model.SourceFile, nil
	}
}

// readCapped reads all of r, failing instead of truncating past limit bytes
func readCapped(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (limit %d bytes)", ErrDocumentTooLarge, limit)
	}
	return data, nil
}

func (p *Pipeline) analyze(ctx context.Context, name string, kind model.SourceKind, text string, start time.Time) (*Result, error) {
	log := logging.Log.WithField("source", name)

	report, languages, err := p.engine.AnalyzeWithLanguages(text)

	var warnings []string
	switch {
	case errors.Is(err, classify.ErrUnknownLanguage):
		log.Warn("language not recognized, using English patterns")
		warnings = append(warnings, "Language not recognized; English patterns were applied")
		p.metrics.ObserveLanguageFallback()
	case errors.Is(err, segment.ErrEmptyInput):
		p.metrics.ObserveFailure(metrics.ResultEmptyInput)
		return nil, fmt.Errorf("%s: %w", name, err)
	case err != nil:
		p.metrics.ObserveFailure(metrics.ResultError)
		return nil, fmt.Errorf("analyze: %w", err)
	}

	p.metrics.ObserveReport(report, time.Since(start))

	analysis := &model.Analysis{
		Source:     name,
		SourceKind: kind,
		AnalyzedAt: p.now(),
		Languages:  languages,
		Warnings:   warnings,
		Entities:   extract.Entities(text),
		Report:     report,
		Principles: model.DefaultPrinciples(),
	}

	// Generate LLM summary if enabled (AFTER scoring, never affects score)
	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *analysis)
		if err != nil {
			log.Warnf("LLM summary generation failed: %v", err)
		} else if summary != nil {
			analysis.LLM = summary
		}
	}

	log.WithFields(logrus.Fields{
		"type":     report.ContractType.Type,
		"clauses":  len(report.Clauses),
		"findings": len(report.Findings),
		"index":    report.Score.Index,
	}).Info("contract analyzed")

	p.record(auditlog.ActionContractAnalyzed, name, fmt.Sprintf("type=%s index=%d findings=%d",
		report.ContractType.Type, report.Score.Index, len(report.Findings)))

	return &Result{Analysis: analysis}, nil
}

// RenderReport renders the analysis to the specified outputs and prints the
// terminal summary
func (p *Pipeline) RenderReport(a *model.Analysis, jsonPath string, mdPath string, verbose bool) error {
	var written []string

	if jsonPath != "" {
		if err := p.renderer.RenderJSON(a, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		written = append(written, jsonPath)
		if verbose {
			_, _ = fmt.Fprintf(p.stdout, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(a, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		written = append(written, mdPath)
		if verbose {
			_, _ = fmt.Fprintf(p.stdout, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// Render LLM summary to separate file if present
	if a.LLM != nil && a.LLM.Enabled && mdPath != "" {
		llmMdPath := LLMPath(mdPath)
		if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(a.LLM), llmMdPath); err != nil {
			logging.Log.Warnf("failed to write LLM summary: %v", err)
		} else {
			written = append(written, llmMdPath)
			if verbose {
				_, _ = fmt.Fprintf(p.stdout, "✓ Wrote LLM Summary: %s\n", llmMdPath)
			}
		}
	}

	if len(written) > 0 {
		p.record(auditlog.ActionReportRendered, a.Source, strings.Join(written, ", "))
	}

	p.renderer.RenderSummary(a)

	return nil
}

// LLMPath is where the LLM summary for a Markdown report is written
func LLMPath(mdPath string) string {
	return strings.TrimSuffix(mdPath, ".md") + ".llm.md"
}

// WriteMetrics publishes cache counters and writes all metrics to path
func (p *Pipeline) WriteMetrics(path string) error {
	if p.cache != nil {
		p.metrics.SetCacheStats(p.cache.Stats())
	}
	if err := p.metrics.WriteTextfile(path); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// record appends to the action log; failures are logged, not returned
func (p *Pipeline) record(action, source, detail string) {
	if p.audit == nil {
		return
	}
	if _, err := p.audit.Append(action, source, detail); err != nil {
		logging.Log.WithField("file", p.audit.Path()).Warnf("action log write failed: %v", err)
	}
}
