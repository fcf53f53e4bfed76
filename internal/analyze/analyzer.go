// Package analyze tests every risk rule against a clause and reports each
// rule that fires, with the exact text that triggered it.
package analyze

import (
	"sort"

	"github.com/ppiankov/clauseguard/internal/match"
	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/taxonomy"
)

// Analyzer runs the rule table against clauses. Safe for concurrent use.
type Analyzer struct {
	rules []taxonomy.CompiledRule
}

// New creates an analyzer over all rules of the taxonomy
func New(tax *taxonomy.Taxonomy, categories ...model.Category) *Analyzer {
	return &Analyzer{rules: tax.Compiled(categories...)}
}

// Analyze returns one finding per rule that fires on clause, in rule-table
// order. Only patterns tagged with one of languages are tested; English is
// used when languages is empty.
func (a *Analyzer) Analyze(clause model.Clause, languages []model.Language) []model.Finding {
	active := activeSet(languages)
	text := match.Normalize(clause.Text)

	var findings []model.Finding
	for _, rule := range a.rules {
		if f, ok := evaluate(rule, clause.Index, text, active); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// AnalyzeAll runs Analyze over every clause and concatenates the results in
// document order
func (a *Analyzer) AnalyzeAll(clauses []model.Clause, languages []model.Language) []model.Finding {
	var findings []model.Finding
	for _, c := range clauses {
		findings = append(findings, a.Analyze(c, languages)...)
	}
	return findings
}

// evaluate tests all patterns of one rule. Every match contributes spans but
// the rule yields at most one finding for the clause.
func evaluate(rule taxonomy.CompiledRule, clauseIndex int, text *match.Text, active map[model.Language]bool) (model.Finding, bool) {
	var (
		firstPattern string
		hits         [][2]int
	)

	for _, m := range rule.Matchers {
		if !active[m.Lang()] {
			continue
		}
		found := m.FindAll(text.Normalized)
		if len(found) == 0 {
			continue
		}
		if firstPattern == "" {
			firstPattern = m.String()
		}
		hits = append(hits, found...)
	}

	if len(hits) == 0 {
		return model.Finding{}, false
	}

	spans := toSpans(text, hits)

	return model.Finding{
		ClauseIndex: clauseIndex,
		RuleID:      rule.ID,
		Category:    rule.Category,
		Title:       rule.Title,
		Pattern:     firstPattern,
		MatchedText: spans[0].Text,
		Spans:       spans,
		Severity:    rule.Severity,
		Explanation: rule.Explanation,
		Mitigation:  rule.Mitigation,
	}, true
}

// toSpans maps normalized hits back to raw text, sorted by position, with
// overlapping hits from different patterns folded together
func toSpans(text *match.Text, hits [][2]int) []model.Span {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i][0] != hits[j][0] {
			return hits[i][0] < hits[j][0]
		}
		return hits[i][1] > hits[j][1]
	})

	merged := make([][2]int, 0, len(hits))
	for _, h := range hits {
		if n := len(merged); n > 0 && h[0] < merged[n-1][1] {
			if h[1] > merged[n-1][1] {
				merged[n-1][1] = h[1]
			}
			continue
		}
		merged = append(merged, h)
	}

	spans := make([]model.Span, len(merged))
	for i, h := range merged {
		spans[i] = text.Span(h[0], h[1])
	}
	return spans
}

func activeSet(languages []model.Language) map[model.Language]bool {
	active := make(map[model.Language]bool, len(languages)+1)
	for _, l := range languages {
		active[l] = true
	}
	if len(active) == 0 {
		active[model.LanguageEnglish] = true
	}
	return active
}
