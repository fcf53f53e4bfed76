package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/ppiankov/clauseguard/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *SummarizeResponse
	err       error
	lastReq   SummarizeRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}

func sampleAnalysis() model.Analysis {
	return model.Analysis{
		Source:     "lease.txt",
		SourceKind: model.SourceFile,
		Report: &model.RiskReport{
			ContractType: model.ContractTypePrediction{Type: model.ContractLease, Confidence: 0.8},
			Clauses:      make([]model.Clause, 5),
			Findings: []model.Finding{
				{RuleID: "TERM-001", Title: "Termination without notice", Severity: model.SeverityHigh, ClauseIndex: 2, MatchedText: "terminate this Agreement without notice"},
				{RuleID: "UNI-001", Title: "Unilateral action without notice", Severity: model.SeverityMedium, ClauseIndex: 2, MatchedText: "without notice"},
				{RuleID: "TERM-001", Title: "Termination without notice", Severity: model.SeverityHigh, ClauseIndex: 4, MatchedText: "terminated without notice"},
			},
			SeverityCounts: map[model.Severity]int{
				model.SeverityLow: 0, model.SeverityMedium: 1, model.SeverityHigh: 2, model.SeverityCritical: 0,
			},
			Score: model.RiskScore{Index: 40, Level: "medium"},
		},
	}
}

func TestNewSummarizer_DisabledProvider(t *testing.T) {
	summarizer, err := NewSummarizer(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summarizer.provider != nil {
		t.Error("Expected provider to be nil when disabled")
	}
	if summarizer.IsEnabled() {
		t.Error("Expected summarizer to be disabled")
	}
	if summarizer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}
}

func TestNewSummarizer_UnknownProvider(t *testing.T) {
	if _, err := NewSummarizer(Config{Provider: "anthropic"}); err == nil {
		t.Error("Expected error for unsupported provider")
	}
}

func TestSummarizer_GenerateSummary_Disabled(t *testing.T) {
	summarizer := &Summarizer{provider: nil, config: Config{}}

	summary, err := summarizer.GenerateSummary(context.Background(), sampleAnalysis())
	if err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
	if summary != nil {
		t.Error("Expected nil summary when provider disabled")
	}
}

func TestSummarizer_GenerateSummary_ProviderUnavailable(t *testing.T) {
	summarizer := &Summarizer{
		provider: &MockProvider{name: "test-provider", available: false},
		config:   Config{StrictRules: true},
	}

	summary, err := summarizer.GenerateSummary(context.Background(), sampleAnalysis())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected summary object with warnings")
	}
	if summary.Enabled {
		t.Error("Expected summary to be marked as disabled")
	}

	found := false
	for _, warning := range summary.Warnings {
		if strings.Contains(warning, "not available") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected warning to mention provider unavailability: %v", summary.Warnings)
	}
}

func TestSummarizer_GenerateSummary_Success(t *testing.T) {
	mockProvider := &MockProvider{
		name:      "test-provider",
		available: true,
		response: &SummarizeResponse{
			Summary:      "The landlord can end the lease without notice [TERM-001].",
			CitedRuleIDs: []string{"TERM-001"},
			Model:        "test-model",
			TokensUsed:   150,
		},
	}

	summarizer := &Summarizer{
		provider: mockProvider,
		config:   Config{Model: "test-model", StrictRules: true},
	}

	summary, err := summarizer.GenerateSummary(context.Background(), sampleAnalysis())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected summary to be generated")
	}

	if !summary.Enabled {
		t.Error("Expected summary to be enabled")
	}
	if summary.Provider != "test-provider" {
		t.Errorf("Expected provider 'test-provider', got '%s'", summary.Provider)
	}
	if summary.Model != "test-model" {
		t.Errorf("Expected model 'test-model', got '%s'", summary.Model)
	}
	if !summary.StrictRules {
		t.Error("Expected strict rule mode to be enabled")
	}
	if summary.SummaryMD != "The landlord can end the lease without notice [TERM-001]." {
		t.Errorf("Expected summary text to match, got '%s'", summary.SummaryMD)
	}

	// Allowlist is the distinct fired rules in rank order
	allowed := mockProvider.lastReq.AllowedRuleIDs
	if strings.Join(allowed, ",") != "TERM-001,UNI-001" {
		t.Errorf("Unexpected allowlist %v", allowed)
	}

	foundTokens, foundCitations := false, false
	for _, warning := range summary.Warnings {
		if warning == "Tokens used: 150" {
			foundTokens = true
		}
		if warning == "Verified 1 citations" {
			foundCitations = true
		}
	}
	if !foundTokens {
		t.Errorf("Expected token usage note: %v", summary.Warnings)
	}
	if !foundCitations {
		t.Errorf("Expected citation verification note: %v", summary.Warnings)
	}
}

func TestSummarizer_GenerateSummary_ProviderError(t *testing.T) {
	summarizer := &Summarizer{
		provider: &MockProvider{
			name:      "test-provider",
			available: true,
			err:       &mockError{msg: "API rate limit exceeded"},
		},
		config: Config{Model: "test-model", StrictRules: true},
	}

	summary, err := summarizer.GenerateSummary(context.Background(), sampleAnalysis())

	// Should not fail the analysis, just return summary with warnings
	if err != nil {
		t.Errorf("Expected no error (graceful degradation), got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected summary with error warning")
	}
	if !summary.Enabled {
		t.Error("Expected summary to be marked as enabled (but failed)")
	}

	found := false
	for _, warning := range summary.Warnings {
		if strings.Contains(warning, "failed") && strings.Contains(warning, "rate limit") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected warning to mention error: %v", summary.Warnings)
	}
}

func TestRenderSeparateMarkdown_Disabled(t *testing.T) {
	if md := RenderSeparateMarkdown(&model.LLMSummary{Enabled: false}); md != "" {
		t.Error("Expected empty markdown when disabled")
	}
}

func TestRenderSeparateMarkdown_Nil(t *testing.T) {
	if md := RenderSeparateMarkdown(nil); md != "" {
		t.Error("Expected empty markdown when nil")
	}
}

func TestRenderSeparateMarkdown_Success(t *testing.T) {
	summary := &model.LLMSummary{
		Enabled:     true,
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		StrictRules: true,
		SummaryMD:   "This is the generated summary content.",
		Warnings:    []string{"Tokens used: 150", "Verified 2 citations"},
	}

	md := RenderSeparateMarkdown(summary)

	for _, section := range []string{
		"# LLM Summary",
		"GENERATED CONTENT",
		"not legal advice",
		"**Provider:** openai",
		"**Model:** gpt-4o-mini",
		"**Strict Rule Citations:** true",
		"This is the generated summary content.",
		"## Notes",
		"- Tokens used: 150",
		"- Verified 2 citations",
		"determined independently",
	} {
		if !strings.Contains(md, section) {
			t.Errorf("Expected markdown to contain '%s'", section)
		}
	}
}

func TestRenderSeparateMarkdown_NoSummary(t *testing.T) {
	md := RenderSeparateMarkdown(&model.LLMSummary{Enabled: true, Provider: "test-provider"})

	if !strings.Contains(md, "No summary generated") {
		t.Error("Expected message about no summary")
	}
	if strings.Contains(md, "## Notes") {
		t.Error("Expected no notes section without warnings")
	}
}

func TestBuildPrompt_BasicStructure(t *testing.T) {
	a := sampleAnalysis()
	prompt := BuildPrompt(a, FiredRuleIDs(a.Report))

	for _, element := range []string{
		"CRITICAL RULES",
		"MUST ONLY cite rule ids from this allowed list",
		"- TERM-001\n- UNI-001",
		"DO NOT invent risks",
		"Source: lease.txt",
		"Contract Type: Lease Agreement (confidence 80%)",
		"Risk Index: 40/100 (medium)",
		"Clauses: 5",
		"Findings: 0 critical, 2 high, 1 medium, 0 low",
		`- [TERM-001] Termination without notice (high), clause 3: "terminate this Agreement without notice"`,
		"NOT legal advice",
	} {
		if !strings.Contains(prompt, element) {
			t.Errorf("Expected prompt to contain '%s'", element)
		}
	}
}

func TestBuildPrompt_NoFindings(t *testing.T) {
	a := model.Analysis{Source: "memo.txt", Report: &model.RiskReport{Clauses: make([]model.Clause, 2)}}

	prompt := BuildPrompt(a, nil)

	if !strings.Contains(prompt, "No rules fired") {
		t.Error("Expected prompt to forbid rule citations")
	}
	if !strings.Contains(prompt, "No risky clauses were flagged") {
		t.Error("Expected prompt to state there are no findings")
	}
}

func TestBuildPrompt_ManyFindings(t *testing.T) {
	report := &model.RiskReport{}
	for i := 0; i < 15; i++ {
		report.Findings = append(report.Findings, model.Finding{RuleID: "PAY-001", Severity: model.SeverityLow, ClauseIndex: i})
	}

	prompt := BuildPrompt(model.Analysis{Report: report}, []string{"PAY-001"})

	if !strings.Contains(prompt, "... and 5 more findings") {
		t.Error("Expected prompt to truncate findings")
	}
}

func TestCheckCitations(t *testing.T) {
	allowed := []string{"TERM-001", "UNI-001"}

	cited, err := checkCitations("End without notice [TERM-001], see also [UNI-001] and [TERM-001].", allowed, true)
	if err != nil {
		t.Fatalf("Expected allowed citations to pass, got %v", err)
	}
	if strings.Join(cited, ",") != "TERM-001,UNI-001" {
		t.Errorf("Unexpected cited ids %v", cited)
	}

	_, err = checkCitations("Watch the penalty [PEN-001].", allowed, true)
	if err == nil || !strings.Contains(err.Error(), "CITATION LEAK") || !strings.Contains(err.Error(), "PEN-001") {
		t.Errorf("Expected citation leak for PEN-001, got %v", err)
	}

	if _, err := checkCitations("Watch the penalty [PEN-001].", allowed, false); err != nil {
		t.Errorf("Expected non-strict mode to allow any id, got %v", err)
	}
}

func TestCheckCitations_IgnoresUnbracketedTokens(t *testing.T) {
	allowed := []string{"TERM-001"}

	summary := "Delays caused by COVID-19 or ISO-9001 audits are excused; the landlord may still end the lease [TERM-001]."
	cited, err := checkCitations(summary, allowed, true)
	if err != nil {
		t.Fatalf("Expected bare id-like tokens to pass, got %v", err)
	}
	if strings.Join(cited, ",") != "TERM-001" {
		t.Errorf("Unexpected cited ids %v", cited)
	}

	if cited, _ := checkCitations("No rules mentioned, only COVID-19.", nil, true); len(cited) != 0 {
		t.Errorf("Expected no citations, got %v", cited)
	}
}

func TestFiredRuleIDs(t *testing.T) {
	if ids := FiredRuleIDs(nil); ids != nil {
		t.Errorf("Expected nil for nil report, got %v", ids)
	}
	if ids := FiredRuleIDs(sampleAnalysis().Report); strings.Join(ids, ",") != "TERM-001,UNI-001" {
		t.Errorf("Unexpected ids %v", ids)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Provider != "" {
		t.Error("Expected LLM to be disabled by default")
	}
	if !config.StrictRules {
		t.Error("Expected strict rule citations by default")
	}
	if config.Timeout != 30 {
		t.Errorf("Expected 30s timeout, got %d", config.Timeout)
	}
}

func TestSummarizer_ProviderName(t *testing.T) {
	s := &Summarizer{provider: &MockProvider{name: "ollama"}}
	if s.ProviderName() != "ollama" || !s.IsEnabled() {
		t.Errorf("Unexpected provider state: %q %v", s.ProviderName(), s.IsEnabled())
	}

	var nilSummarizer *Summarizer
	if nilSummarizer.IsEnabled() {
		t.Error("Expected nil summarizer to be disabled")
	}
}

func TestConfigFromModel_EnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama.local:11434")

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.HTTP.HTTPSProxy = "http://proxy:3128"

	c := ConfigFromModel(cfg)
	if c.APIKey != "sk-from-env" {
		t.Errorf("Expected API key from env, got %q", c.APIKey)
	}
	if c.HTTPSProxy != "http://proxy:3128" || !c.StrictRules {
		t.Errorf("Unexpected config %+v", c)
	}

	cfg.LLM.Provider = "ollama"
	cfg.LLM.BaseURL = ""
	if c := ConfigFromModel(cfg); c.BaseURL != "http://ollama.local:11434" || c.APIKey != "" {
		t.Errorf("Unexpected ollama config %+v", c)
	}
}
