package score

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/clauseguard/internal/analyze"
	"github.com/ppiankov/clauseguard/internal/model"
)

// DefaultTopN is how many ranked findings are surfaced as top risks
const DefaultTopN = 5

// Score level bands
const (
	LevelNone     = "none"
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

const indexFormula = "min(100, round(100 * weighted_sum / (clause_count * 4)))"

const (
	balancedExplanation = "This clause appears balanced and does not pose significant legal risk."
	noMitigation        = "No immediate mitigation required."
	riskExplanation     = "This clause may expose the business to legal risk due to: "
)

// Aggregator turns clauses and findings into a RiskReport
type Aggregator struct {
	topN int
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithTopN sets how many findings are listed as top risks
func WithTopN(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.topN = n
		}
	}
}

// NewAggregator creates a new aggregator
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{topN: DefaultTopN}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate builds the report. It never mutates its inputs, and the same
// input always yields a deep-equal report.
func (a *Aggregator) Aggregate(clauses []model.Clause, findings []model.Finding) *model.RiskReport {
	// 1. Rank: severity desc, clause index asc, input order within ties
	ranked := make([]model.Finding, len(findings))
	copy(ranked, findings)
	sort.SliceStable(ranked, func(i, j int) bool {
		wi, wj := ranked[i].Severity.Weight(), ranked[j].Severity.Weight()
		if wi != wj {
			return wi > wj
		}
		return ranked[i].ClauseIndex < ranked[j].ClauseIndex
	})

	// 2. Severity counts, all keys present
	counts := make(map[model.Severity]int, len(model.Severities))
	for _, sev := range model.Severities {
		counts[sev] = 0
	}
	for _, f := range ranked {
		counts[f.Severity]++
	}

	// 3. Top risks
	n := a.topN
	if n > len(ranked) {
		n = len(ranked)
	}
	top := make([]model.Finding, n)
	copy(top, ranked[:n])

	// 4. Audit trail mirrors the ranked order
	trail := make([]model.AuditEntry, len(ranked))
	for i, f := range ranked {
		trail[i] = model.AuditEntry{
			RuleID:      f.RuleID,
			ClauseIndex: f.ClauseIndex,
			Pattern:     f.Pattern,
			MatchedText: f.MatchedText,
		}
	}

	out := make([]model.Clause, len(clauses))
	copy(out, clauses)

	return &model.RiskReport{
		Clauses:        out,
		Findings:       ranked,
		TopRisks:       top,
		SeverityCounts: counts,
		Score:          CalculateIndex(len(clauses), findings),
		Assessments:    assess(clauses, findings),
		AuditTrail:     trail,
	}
}

// CalculateIndex computes the 0-100 risk index. It depends only on the
// severity profile and the clause count, so a long and a short contract with
// the same profile per clause score alike.
func CalculateIndex(clauseCount int, findings []model.Finding) model.RiskScore {
	sum := 0
	for _, f := range findings {
		sum += f.Severity.Weight()
	}

	index := 0
	if len(findings) > 0 && clauseCount > 0 {
		raw := 100 * float64(sum) / float64(clauseCount*model.SeverityCritical.Weight())
		index = int(math.Min(100, math.Round(raw)))
	}

	return model.RiskScore{
		Index:       index,
		Level:       Level(index),
		WeightedSum: sum,
		ClauseCount: clauseCount,
		Formula:     indexFormula,
	}
}

// Level maps an index to its band
func Level(index int) string {
	switch {
	case index <= 0:
		return LevelNone
	case index < 25:
		return LevelLow
	case index < 50:
		return LevelMedium
	case index < 75:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// assess builds the per-clause view: clause type, worst severity, and
// plain-language explanation and mitigation
func assess(clauses []model.Clause, findings []model.Finding) []model.ClauseAssessment {
	byClause := make(map[int][]model.Finding)
	for _, f := range findings {
		byClause[f.ClauseIndex] = append(byClause[f.ClauseIndex], f)
	}

	out := make([]model.ClauseAssessment, len(clauses))
	for i, c := range clauses {
		fs := byClause[c.Index]
		ca := model.ClauseAssessment{
			ClauseIndex: c.Index,
			ClauseType:  analyze.ClauseType(c),
			Level:       LevelNone,
			Explanation: balancedExplanation,
			Mitigation:  noMitigation,
		}

		if len(fs) > 0 {
			var (
				worst       model.Severity
				titles      []string
				mitigations []string
			)
			for _, f := range fs {
				if f.Severity.Weight() > worst.Weight() {
					worst = f.Severity
				}
				ca.RuleIDs = append(ca.RuleIDs, f.RuleID)
				titles = append(titles, f.Title)
				mitigations = append(mitigations, f.Mitigation)
			}
			ca.Level = string(worst)
			ca.Explanation = riskExplanation + strings.Join(titles, ", ")
			ca.Mitigation = strings.Join(mitigations, " ")
		}

		out[i] = ca
	}
	return out
}

// Summary is a one-line description of the score for terminal output
func Summary(s model.RiskScore) string {
	return fmt.Sprintf("%d/100 (%s): weighted sum %d over %d clauses", s.Index, s.Level, s.WeightedSum, s.ClauseCount)
}
