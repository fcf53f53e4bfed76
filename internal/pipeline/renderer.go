package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/score"
)

const footer = "Generated by clauseguard. Findings come from fixed pattern rules and are not legal advice; have a lawyer review any contract before signing."

// Renderer writes analyses as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
	showClauses   bool
	out           io.Writer
}

// RendererOption configures a Renderer
type RendererOption func(*Renderer)

// WithClauses adds the full per-clause table to Markdown reports
func WithClauses(show bool) RendererOption {
	return func(r *Renderer) { r.showClauses = show }
}

// WithOutput sends the terminal summary to w instead of stdout
func WithOutput(w io.Writer) RendererOption {
	return func(r *Renderer) { r.out = w }
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool, opts ...RendererOption) *Renderer {
	r := &Renderer{includeFooter: includeFooter, out: os.Stdout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderJSON writes the analysis as indented JSON
func (r *Renderer) RenderJSON(a *model.Analysis, path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the human-readable report
func (r *Renderer) RenderMarkdown(a *model.Analysis, path string) error {
	return writeFile(path, []byte(r.Markdown(a)))
}

// RenderLLMMarkdown writes an already rendered LLM summary document
func (r *Renderer) RenderLLMMarkdown(markdown, path string) error {
	return writeFile(path, []byte(markdown))
}

// Markdown renders the report. Every finding shows the rule, the verbatim
// matched text and the clause it came from.
func (r *Renderer) Markdown(a *model.Analysis) string {
	report := a.Report
	if report == nil {
		report = &model.RiskReport{}
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Contract Risk Report: %s\n\n", escapeMarkdown(a.Source)))
	sb.WriteString("> Heuristic analysis. Each finding is a pattern match on the contract text, not a legal opinion.\n\n")

	sb.WriteString("## Overview\n\n")
	sb.WriteString(fmt.Sprintf("- **Source:** %s (%s)\n", escapeMarkdown(a.Source), a.SourceKind))
	if !a.AnalyzedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- **Analyzed:** %s\n", a.AnalyzedAt.Format("2006-01-02 15:04:05 MST")))
	}
	sb.WriteString(fmt.Sprintf("- **Contract Type:** %s (confidence %.0f%%)\n",
		report.ContractType.Type.DisplayName(), report.ContractType.Confidence*100))
	if len(a.Languages) > 0 {
		langs := make([]string, len(a.Languages))
		for i, l := range a.Languages {
			langs[i] = string(l)
		}
		sb.WriteString(fmt.Sprintf("- **Pattern Languages:** %s\n", strings.Join(langs, ", ")))
	}
	sb.WriteString(fmt.Sprintf("- **Clauses:** %d\n", len(report.Clauses)))
	sb.WriteString(fmt.Sprintf("- **Risk Index:** %d/100 (%s)\n\n", report.Score.Index, report.Score.Level))
	if report.Score.Formula != "" {
		sb.WriteString(fmt.Sprintf("Score: `%s` = %d weighted over %d clauses.\n\n",
			report.Score.Formula, report.Score.WeightedSum, report.Score.ClauseCount))
	}

	if len(a.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range a.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", escapeMarkdown(w)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Severity Breakdown\n\n")
	sb.WriteString("| Severity | Findings |\n")
	sb.WriteString("|----------|----------|\n")
	for i := len(model.Severities) - 1; i >= 0; i-- {
		sev := model.Severities[i]
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", sev, report.SeverityCounts[sev]))
	}
	sb.WriteString("\n")

	sb.WriteString("## Top Risks\n\n")
	if len(report.TopRisks) == 0 {
		sb.WriteString("No risky clauses were flagged.\n\n")
	} else {
		for i, f := range report.TopRisks {
			sb.WriteString(fmt.Sprintf("%d. **[%s] %s** (%s), clause %d\n",
				i+1, f.RuleID, escapeMarkdown(f.Title), f.Severity, f.ClauseIndex+1))
		}
		sb.WriteString("\n")
	}

	if len(report.Findings) > 0 {
		sb.WriteString("## Findings\n\n")
		for _, f := range report.Findings {
			sb.WriteString(fmt.Sprintf("### [%s] %s\n\n", f.RuleID, escapeMarkdown(f.Title)))
			sb.WriteString(fmt.Sprintf("- **Severity:** %s\n", f.Severity))
			sb.WriteString(fmt.Sprintf("- **Category:** %s\n", f.Category))
			sb.WriteString(fmt.Sprintf("- **Clause:** %d\n", f.ClauseIndex+1))
			sb.WriteString(fmt.Sprintf("- **Matched:** \"%s\"\n\n", escapeMarkdown(f.MatchedText)))
			if f.ClauseIndex >= 0 && f.ClauseIndex < len(report.Clauses) {
				sb.WriteString(quote(report.Clauses[f.ClauseIndex].Text))
				sb.WriteString("\n")
			}
			sb.WriteString(fmt.Sprintf("**Why it matters:** %s\n\n", f.Explanation))
			sb.WriteString(fmt.Sprintf("**What to ask for:** %s\n\n", f.Mitigation))
		}
	}

	if r.showClauses && len(report.Assessments) > 0 {
		sb.WriteString("## Clauses\n\n")
		sb.WriteString("| # | Type | Level | Rules | Text |\n")
		sb.WriteString("|---|------|-------|-------|------|\n")
		for _, ca := range report.Assessments {
			text := ""
			if ca.ClauseIndex < len(report.Clauses) {
				text = truncate(report.Clauses[ca.ClauseIndex].Text, 120)
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
				ca.ClauseIndex+1, ca.ClauseType, ca.Level, strings.Join(ca.RuleIDs, ", "), escapeMarkdown(text)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Key Information\n\n")
	sb.WriteString(fmt.Sprintf("- **Amounts:** %s\n", listOrNone(a.Entities.Amounts)))
	sb.WriteString(fmt.Sprintf("- **Dates:** %s\n", listOrNone(a.Entities.Dates)))
	sb.WriteString(fmt.Sprintf("- **Jurisdictions:** %s\n\n", listOrNone(a.Entities.Jurisdictions)))

	if len(report.AuditTrail) > 0 {
		sb.WriteString("## Audit Trail\n\n")
		sb.WriteString("| Rule | Clause | Pattern | Matched |\n")
		sb.WriteString("|------|--------|---------|---------|\n")
		for _, e := range report.AuditTrail {
			sb.WriteString(fmt.Sprintf("| %s | %d | `%s` | %s |\n",
				e.RuleID, e.ClauseIndex+1, strings.ReplaceAll(e.Pattern, "|", `\|`), escapeMarkdown(e.MatchedText)))
		}
		sb.WriteString("\n")
	}

	if r.includeFooter {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("*%s*\n", footer))
	}

	return sb.String()
}

// RenderSummary prints a short terminal summary
func (r *Renderer) RenderSummary(a *model.Analysis) {
	report := a.Report
	if report == nil {
		return
	}

	w := r.out
	_, _ = fmt.Fprintf(w, "\n%s\n", a.Source)
	_, _ = fmt.Fprintf(w, "  Contract type: %s (%.0f%%)\n", report.ContractType.Type.DisplayName(), report.ContractType.Confidence*100)
	_, _ = fmt.Fprintf(w, "  Risk index:    %s\n", score.Summary(report.Score))
	_, _ = fmt.Fprintf(w, "  Findings:      %d critical, %d high, %d medium, %d low\n",
		report.SeverityCounts[model.SeverityCritical], report.SeverityCounts[model.SeverityHigh],
		report.SeverityCounts[model.SeverityMedium], report.SeverityCounts[model.SeverityLow])

	for _, f := range report.TopRisks {
		_, _ = fmt.Fprintf(w, "  - [%s] %s (%s, clause %d)\n", f.RuleID, f.Title, f.Severity, f.ClauseIndex+1)
	}
	for _, warning := range a.Warnings {
		_, _ = fmt.Fprintf(w, "  ! %s\n", warning)
	}
	_, _ = fmt.Fprintln(w)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func quote(text string) string {
	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		sb.WriteString("> ")
		sb.WriteString(escapeMarkdown(strings.TrimSpace(line)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none found"
	}
	escaped := make([]string, len(items))
	for i, item := range items {
		escaped[i] = escapeMarkdown(item)
	}
	return strings.Join(escaped, ", ")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// escapeMarkdown escapes characters that would break tables or inject markup
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"`", "\\`",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
		"#", "\\#",
		"|", "\\|",
		"<", "&lt;",
		">", "&gt;",
		"\n", " ",
	)
	return replacer.Replace(s)
}
