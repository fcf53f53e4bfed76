// Package engine runs the clause risk analysis end to end: segment, classify,
// analyze, aggregate. It does no I/O and keeps no state between calls, so one
// Engine can serve many documents concurrently.
package engine

import (
	"errors"

	"github.com/ppiankov/clauseguard/internal/analyze"
	"github.com/ppiankov/clauseguard/internal/classify"
	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/score"
	"github.com/ppiankov/clauseguard/internal/segment"
	"github.com/ppiankov/clauseguard/internal/taxonomy"
)

// Engine wires the analysis stages around one read-only taxonomy
type Engine struct {
	segmenter  *segment.Segmenter
	classifier *classify.Classifier
	analyzer   *analyze.Analyzer
	aggregator *score.Aggregator
}

type config struct {
	topN       int
	categories []model.Category
}

// Option configures an Engine
type Option func(*config)

// WithTopN sets the number of top risks in reports
func WithTopN(n int) Option {
	return func(c *config) { c.topN = n }
}

// WithCategories restricts analysis to rules of the given categories
func WithCategories(categories ...model.Category) Option {
	return func(c *config) { c.categories = categories }
}

// New creates an engine over tax
func New(tax *taxonomy.Taxonomy, opts ...Option) *Engine {
	cfg := config{topN: score.DefaultTopN}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Engine{
		segmenter:  segment.New(),
		classifier: classify.New(tax),
		analyzer:   analyze.New(tax, cfg.categories...),
		aggregator: score.NewAggregator(score.WithTopN(cfg.topN)),
	}
}

// NewDefault creates an engine over the built-in taxonomy
func NewDefault(opts ...Option) (*Engine, error) {
	tax, err := taxonomy.Default()
	if err != nil {
		return nil, err
	}
	return New(tax, opts...), nil
}

// Analyze produces the risk report for one document.
// It fails only with segment.ErrEmptyInput; an unrecognized language falls
// back to English patterns.
func (e *Engine) Analyze(text string) (*model.RiskReport, error) {
	report, _, err := e.AnalyzeWithLanguages(text)
	if errors.Is(err, classify.ErrUnknownLanguage) {
		return report, nil
	}
	return report, err
}

// AnalyzeWithLanguages is Analyze that also returns the pattern languages
// used. When the language is unknown the report is still complete and the
// error is classify.ErrUnknownLanguage.
func (e *Engine) AnalyzeWithLanguages(text string) (*model.RiskReport, []model.Language, error) {
	clauses, err := e.segmenter.Segment(text)
	if err != nil {
		return nil, nil, err
	}

	languages, langErr := classify.DetectLanguage(text)

	prediction := e.classifier.Classify(text)
	findings := e.analyzer.AnalyzeAll(clauses, languages)

	report := e.aggregator.Aggregate(clauses, findings)
	report.ContractType = prediction

	return report, languages, langErr
}
