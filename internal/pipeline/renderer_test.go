package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/clauseguard/internal/model"
)

func sampleAnalysis() *model.Analysis {
	clauses := []model.Clause{
		{Index: 0, Text: "1. Rent is due monthly."},
		{Index: 1, Text: "2. The Landlord may terminate this Agreement without notice."},
	}
	finding := model.Finding{
		ClauseIndex: 1,
		RuleID:      "TERM-001",
		Category:    model.CategoryTermination,
		Title:       "Termination without notice",
		Pattern:     `terminat\w*|without notice`,
		MatchedText: "terminate this Agreement without notice",
		Severity:    model.SeverityHigh,
		Explanation: "The contract can end overnight.",
		Mitigation:  "Ask for a 30 day notice period.",
	}
	return &model.Analysis{
		Source:     "lease_v2.txt",
		SourceKind: model.SourceFile,
		AnalyzedAt: time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC),
		Languages:  []model.Language{model.LanguageEnglish},
		Entities: model.Entities{
			Amounts:       []string{"Rs. 25,000"},
			Jurisdictions: []string{"Delhi"},
		},
		Report: &model.RiskReport{
			ContractType: model.ContractTypePrediction{Type: model.ContractLease, Confidence: 0.75},
			Clauses:      clauses,
			Findings:     []model.Finding{finding},
			TopRisks:     []model.Finding{finding},
			SeverityCounts: map[model.Severity]int{
				model.SeverityLow: 0, model.SeverityMedium: 0, model.SeverityHigh: 1, model.SeverityCritical: 0,
			},
			Score: model.RiskScore{Index: 38, Level: "medium", WeightedSum: 3, ClauseCount: 2, Formula: "min(100, round(100 * sum / (clauses * 4)))"},
			Assessments: []model.ClauseAssessment{
				{ClauseIndex: 0, ClauseType: model.ClauseTypeNeutral, Level: "none"},
				{ClauseIndex: 1, ClauseType: model.ClauseTypeRight, Level: "high", RuleIDs: []string{"TERM-001"}},
			},
			AuditTrail: []model.AuditEntry{
				{RuleID: "TERM-001", ClauseIndex: 1, Pattern: finding.Pattern, MatchedText: finding.MatchedText},
			},
		},
		Principles: model.DefaultPrinciples(),
	}
}

func TestRenderer_Markdown(t *testing.T) {
	md := NewRenderer(true).Markdown(sampleAnalysis())

	for _, want := range []string{
		`# Contract Risk Report: lease\_v2.txt`,
		"- **Contract Type:** Lease Agreement (confidence 75%)",
		"- **Pattern Languages:** en",
		"- **Risk Index:** 38/100 (medium)",
		"= 3 weighted over 2 clauses",
		"| high | 1 |",
		"| critical | 0 |",
		"1. **[TERM-001] Termination without notice** (high), clause 2",
		"### [TERM-001] Termination without notice",
		`- **Matched:** "terminate this Agreement without notice"`,
		"> 2. The Landlord may terminate this Agreement without notice.",
		"**What to ask for:** Ask for a 30 day notice period.",
		"- **Amounts:** Rs. 25,000",
		"- **Dates:** none found",
		"- **Jurisdictions:** Delhi",
		"## Audit Trail",
		"| TERM-001 | 2 | `terminat\\w*\\|without notice` |",
		"not legal advice",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected markdown to contain %q", want)
		}
	}

	if strings.Contains(md, "## Clauses") {
		t.Error("clause table should be off by default")
	}
	if strings.Contains(md, "## Warnings") {
		t.Error("unexpected warnings section")
	}
}

func TestRenderer_MarkdownEscapesClauseText(t *testing.T) {
	a := sampleAnalysis()
	a.Report.Clauses[1].Text = "2. # Heading *bold* | pipe\nsecond <line>"
	a.Report.Findings[0].MatchedText = "without\nnotice_period"

	md := NewRenderer(false).Markdown(a)

	for _, want := range []string{
		`> 2. \# Heading \*bold\* \| pipe`,
		"> second &lt;line&gt;",
		`- **Matched:** "without notice\_period"`,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected markdown to contain %q", want)
		}
	}
	if strings.Contains(md, `\n`) {
		t.Error("matched text rendered with a Go escape sequence")
	}
}

func TestRenderer_MarkdownOptions(t *testing.T) {
	a := sampleAnalysis()
	a.Warnings = []string{"Language not recognized; English patterns were applied"}

	md := NewRenderer(false, WithClauses(true)).Markdown(a)

	if !strings.Contains(md, "## Clauses") || !strings.Contains(md, "| 2 | right | high | TERM-001 |") {
		t.Error("expected clause table")
	}
	if !strings.Contains(md, "## Warnings") {
		t.Error("expected warnings section")
	}
	if strings.Contains(md, "Generated by clauseguard") {
		t.Error("expected no footer")
	}
}

func TestRenderer_MarkdownNoFindings(t *testing.T) {
	a := sampleAnalysis()
	a.Report.Findings = nil
	a.Report.TopRisks = nil
	a.Report.AuditTrail = nil

	md := NewRenderer(true).Markdown(a)
	if !strings.Contains(md, "No risky clauses were flagged.") {
		t.Error("expected no-findings note")
	}
	if strings.Contains(md, "## Findings") || strings.Contains(md, "## Audit Trail") {
		t.Error("expected empty sections to be skipped")
	}
}

func TestRenderer_RenderSummary(t *testing.T) {
	var buf bytes.Buffer
	a := sampleAnalysis()
	a.Warnings = []string{"something odd"}

	NewRenderer(true, WithOutput(&buf)).RenderSummary(a)

	out := buf.String()
	for _, want := range []string{
		"lease_v2.txt",
		"Contract type: Lease Agreement (75%)",
		"Risk index:    38/100 (medium): weighted sum 3 over 2 clauses",
		"Findings:      0 critical, 1 high, 0 medium, 0 low",
		"- [TERM-001] Termination without notice (high, clause 2)",
		"! something odd",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRenderer_RenderFiles(t *testing.T) {
	r := NewRenderer(true)
	dir := filepath.Join(t.TempDir(), "nested")

	jsonPath := filepath.Join(dir, "report.json")
	if err := r.RenderJSON(sampleAnalysis(), jsonPath); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"source": "lease_v2.txt"`, `"rule_id": "TERM-001"`, `"high": 1`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected JSON to contain %s", want)
		}
	}

	llmPath := filepath.Join(dir, "report.llm.md")
	if err := r.RenderLLMMarkdown("# LLM Summary\n", llmPath); err != nil {
		t.Fatalf("RenderLLMMarkdown: %v", err)
	}
	if data, _ := os.ReadFile(llmPath); string(data) != "# LLM Summary\n" {
		t.Errorf("unexpected LLM file %q", data)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"a|b", `a\|b`},
		{"<script>", "&lt;script&gt;"},
		{"line\nbreak", "line break"},
		{"[link](x)", `\[link\](x)`},
	}
	for _, tt := range tests {
		if got := escapeMarkdown(tt.in); got != tt.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
