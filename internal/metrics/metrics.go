// Package metrics provides Prometheus instrumentation for analysis runs.
// Metrics live on their own registry and are exported as a node_exporter
// textfile, since the CLI has no long-running HTTP endpoint to scrape.
package metrics

import (
	"time"

	"github.com/ppiankov/clauseguard/internal/cache"
	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clauseguard"

// Document results
const (
	ResultAnalyzed   = "analyzed"
	ResultEmptyInput = "empty_input"
	ResultError      = "error"
)

// Metrics holds the collectors for one process
type Metrics struct {
	Registry *prometheus.Registry

	// DocumentsAnalyzed counts documents by result.
	DocumentsAnalyzed *prometheus.CounterVec

	// Findings counts findings by severity.
	Findings *prometheus.CounterVec

	// RuleHits counts findings by rule id.
	RuleHits *prometheus.CounterVec

	// LanguageFallbacks counts documents analyzed with English patterns
	// because their language was not recognized.
	LanguageFallbacks prometheus.Counter

	// ClausesPerDocument observes segmentation output size.
	ClausesPerDocument prometheus.Histogram

	// AnalysisDuration observes load-to-report time per document.
	AnalysisDuration prometheus.Histogram

	// RiskIndex observes the document risk index.
	RiskIndex prometheus.Histogram

	// FetchCacheLookups reports fetch cache lookups by answering layer.
	FetchCacheLookups *prometheus.GaugeVec
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		DocumentsAnalyzed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_analyzed_total",
				Help:      "Total documents processed by result.",
			},
			[]string{"result"},
		),
		Findings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "findings_total",
				Help:      "Total risk findings by severity.",
			},
			[]string{"severity"},
		),
		RuleHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_hits_total",
				Help:      "Total risk findings by rule id.",
			},
			[]string{"rule"},
		),
		LanguageFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "language_fallbacks_total",
				Help:      "Documents analyzed with English patterns because the language was not recognized.",
			},
		),
		ClausesPerDocument: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "clauses_per_document",
				Help:      "Number of clauses per analyzed document.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		AnalysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Time from loading a document to a finished report.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		RiskIndex: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "risk_index",
				Help:      "Document risk index (0-100).",
				Buckets:   []float64{0, 25, 50, 75, 100},
			},
		),
		FetchCacheLookups: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fetch_cache_lookups",
				Help:      "Fetch cache lookups by answering layer (memory, disk, miss).",
			},
			[]string{"layer"},
		),
	}

	m.Registry.MustRegister(
		m.DocumentsAnalyzed,
		m.Findings,
		m.RuleHits,
		m.LanguageFallbacks,
		m.ClausesPerDocument,
		m.AnalysisDuration,
		m.RiskIndex,
		m.FetchCacheLookups,
	)

	// Keep every severity series present even before the first finding
	for _, sev := range model.Severities {
		m.Findings.WithLabelValues(string(sev))
	}

	return m
}

// ObserveReport records a successful analysis
func (m *Metrics) ObserveReport(report *model.RiskReport, elapsed time.Duration) {
	m.DocumentsAnalyzed.WithLabelValues(ResultAnalyzed).Inc()
	m.ClausesPerDocument.Observe(float64(len(report.Clauses)))
	m.AnalysisDuration.Observe(elapsed.Seconds())
	m.RiskIndex.Observe(float64(report.Score.Index))

	for _, f := range report.Findings {
		m.Findings.WithLabelValues(string(f.Severity)).Inc()
		m.RuleHits.WithLabelValues(f.RuleID).Inc()
	}
}

// ObserveFailure records a document that produced no report
func (m *Metrics) ObserveFailure(result string) {
	m.DocumentsAnalyzed.WithLabelValues(result).Inc()
}

// ObserveLanguageFallback records an unrecognized-language document
func (m *Metrics) ObserveLanguageFallback() {
	m.LanguageFallbacks.Inc()
}

// SetCacheStats publishes the fetch cache counters
func (m *Metrics) SetCacheStats(stats cache.Stats) {
	m.FetchCacheLookups.WithLabelValues(cache.LayerMemory).Set(float64(stats.MemoryHits))
	m.FetchCacheLookups.WithLabelValues(cache.LayerDisk).Set(float64(stats.DiskHits))
	m.FetchCacheLookups.WithLabelValues("miss").Set(float64(stats.Misses))
}

// WriteTextfile writes all metrics in the textfile collector format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
