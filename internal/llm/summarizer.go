// Package llm produces an optional plain-language summary of a finished
// analysis. The summary is generated after scoring and never changes
// findings or the score.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/clauseguard/internal/model"
)

// Summarizer wraps a provider with graceful degradation: provider problems
// become warnings on the summary, never analysis failures
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer; an empty provider yields a disabled one
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary summarizes a scored analysis. It returns nil when disabled.
func (s *Summarizer) GenerateSummary(ctx context.Context, analysis model.Analysis) (*model.LLMSummary, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Provider:    s.provider.Name(),
		Model:       s.config.Model,
		StrictRules: s.config.StrictRules,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Enabled = false
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("LLM provider %s is not available (check API key or server)", s.provider.Name()))
		return summary, nil
	}
	summary.Enabled = true

	allowed := FiredRuleIDs(analysis.Report)
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Analysis:       analysis,
		AllowedRuleIDs: allowed,
		Model:          s.config.Model,
		MaxTokens:      s.config.MaxTokens,
	})
	if err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM summary generation failed: %v", err))
		return summary, nil
	}

	summary.SummaryMD = resp.Summary
	if resp.Model != "" {
		summary.Model = resp.Model
	}
	summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	if s.config.StrictRules {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("Verified %d citations", len(resp.CitedRuleIDs)))
	}

	return summary, nil
}

// RenderSeparateMarkdown renders the summary as a standalone document,
// kept apart from the deterministic report
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder

	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT** - this summary was written by a language model from the clauseguard report. ")
	b.WriteString("It is not legal advice. Findings and the risk index were determined independently by fixed rules; ")
	b.WriteString("the model cannot change them.\n\n")

	fmt.Fprintf(&b, "- **Provider:** %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", summary.Model)
	}
	fmt.Fprintf(&b, "- **Strict Rule Citations:** %t\n\n", summary.StrictRules)

	b.WriteString("## Summary\n\n")
	if summary.SummaryMD == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
