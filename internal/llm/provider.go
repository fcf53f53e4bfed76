package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/clauseguard/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a plain-language summary of an analysis
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Analysis is the finished, scored analysis to summarize
	Analysis model.Analysis

	// AllowedRuleIDs is the STRICT allowlist of rule ids the LLM can cite:
	// the rules that actually fired. Any other id is a citation leak.
	AllowedRuleIDs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	// Summary is the generated summary text
	Summary string

	// CitedRuleIDs are the rule ids the summary mentions
	CitedRuleIDs []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictRules rejects summaries citing rules that did not fire
	StrictRules bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     30,
		StrictRules: true,
		MaxTokens:   800,
	}
}

const systemPrompt = "You explain contract risk reports to small business owners in plain language. You never give legal advice and never add risks the report does not list."

const maxPromptFindings = 10

// BuildPrompt constructs the default summarization prompt. The model sees
// only the scored report, never a chance to change it.
func BuildPrompt(a model.Analysis, allowedRuleIDs []string) string {
	var b strings.Builder

	b.WriteString(`You are summarizing a clauseguard contract risk report. clauseguard flags risky clauses with fixed pattern rules - it is NOT legal advice.

CRITICAL RULES:
1. You MUST ONLY cite rule ids from this allowed list, written in brackets like [TERM-001]:
`)
	b.WriteString(joinRuleIDs(allowedRuleIDs))
	b.WriteString(`

2. DO NOT invent risks, clauses or rule ids that are not listed below.
3. Explain each cited risk in one plain sentence and say what to negotiate.
4. Never say the contract is legal, illegal, safe or unsafe - describe the flagged wording only.

`)

	r := a.Report
	if r == nil {
		r = &model.RiskReport{}
	}

	fmt.Fprintf(&b, "Report Summary:\n")
	fmt.Fprintf(&b, "- Source: %s\n", a.Source)
	fmt.Fprintf(&b, "- Contract Type: %s (confidence %.0f%%)\n", r.ContractType.Type.DisplayName(), r.ContractType.Confidence*100)
	fmt.Fprintf(&b, "- Risk Index: %d/100 (%s)\n", r.Score.Index, r.Score.Level)
	fmt.Fprintf(&b, "- Clauses: %d\n", len(r.Clauses))
	fmt.Fprintf(&b, "- Findings: %d critical, %d high, %d medium, %d low\n",
		r.SeverityCounts[model.SeverityCritical], r.SeverityCounts[model.SeverityHigh],
		r.SeverityCounts[model.SeverityMedium], r.SeverityCounts[model.SeverityLow])

	b.WriteString("\nFindings (highest severity first):\n")
	if len(r.Findings) == 0 {
		b.WriteString("(No risky clauses were flagged)\n")
	}
	for i, f := range r.Findings {
		if i >= maxPromptFindings {
			fmt.Fprintf(&b, "... and %d more findings\n", len(r.Findings)-maxPromptFindings)
			break
		}
		fmt.Fprintf(&b, "- [%s] %s (%s), clause %d: %q\n", f.RuleID, f.Title, f.Severity, f.ClauseIndex+1, f.MatchedText)
	}

	b.WriteString("\nProvide a 4-6 sentence summary for a non-lawyer, citing rule ids in brackets.")

	return b.String()
}

// FiredRuleIDs returns the distinct rule ids in the report, in rank order
func FiredRuleIDs(r *model.RiskReport) []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for _, f := range r.Findings {
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			ids = append(ids, f.RuleID)
		}
	}
	return ids
}

// Citations use the bracketed form the prompt asks for; bare tokens such as
// "COVID-19" are ordinary text
var ruleIDPattern = regexp.MustCompile(`\[([A-Z]{2,6}-\d{2,4})\]`)

// extractRuleIDs finds every bracketed [RULE-ID] citation
func extractRuleIDs(text string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range ruleIDPattern.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// checkCitations extracts cited rule ids and, in strict mode, rejects any id
// outside the allowlist
func checkCitations(summary string, allowed []string, strict bool) ([]string, error) {
	cited := extractRuleIDs(summary)
	if !strict {
		return cited, nil
	}
	for _, id := range cited {
		if !contains(allowed, id) {
			return nil, fmt.Errorf("CITATION LEAK: LLM cited rule that did not fire: %s", id)
		}
	}
	return cited, nil
}

func joinRuleIDs(ids []string) string {
	if len(ids) == 0 {
		return "(No rules fired - do not cite any rule id)"
	}
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(id)
	}
	return b.String()
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
