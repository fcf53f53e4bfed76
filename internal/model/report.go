package model

import "time"

// ContractType is the predicted kind of contract
type ContractType string

const (
	ContractNDA              ContractType = "nda"
	ContractEmployment       ContractType = "employment"
	ContractLease            ContractType = "lease"
	ContractServiceAgreement ContractType = "service_agreement"
	ContractSalesPurchase    ContractType = "sales_purchase"
	ContractOther            ContractType = "other"
)

// ContractTypePriority is the fixed tie-break order used by the classifier
var ContractTypePriority = []ContractType{
	ContractNDA,
	ContractEmployment,
	ContractLease,
	ContractServiceAgreement,
	ContractSalesPurchase,
}

// DisplayName returns a human-readable contract type name
func (c ContractType) DisplayName() string {
	switch c {
	case ContractNDA:
		return "Non-Disclosure Agreement"
	case ContractEmployment:
		return "Employment Agreement"
	case ContractLease:
		return "Lease Agreement"
	case ContractServiceAgreement:
		return "Service Agreement"
	case ContractSalesPurchase:
		return "Sales / Purchase Agreement"
	default:
		return "General Commercial Contract"
	}
}

// ContractTypePrediction is the classifier output for one document
type ContractTypePrediction struct {
	Type       ContractType             `json:"type"`
	Confidence float64                  `json:"confidence"` // 0.0-1.0
	Scores     map[ContractType]float64 `json:"scores"`     // Raw weighted score per candidate type
}

// AuditEntry is one literal record of a rule firing on clause text
type AuditEntry struct {
	RuleID      string `json:"rule_id"`
	ClauseIndex int    `json:"clause_index"`
	Pattern     string `json:"pattern"`
	MatchedText string `json:"matched_text"`
}

// ClauseAssessment is the per-clause view shown next to each clause
type ClauseAssessment struct {
	ClauseIndex int        `json:"clause_index"`
	ClauseType  ClauseType `json:"clause_type"`
	Level       string     `json:"level"` // "none" or a Severity
	RuleIDs     []string   `json:"rule_ids,omitempty"`
	Explanation string     `json:"explanation"`
	Mitigation  string     `json:"mitigation"`
}

// RiskScore is the transparent document-level score
type RiskScore struct {
	Index       int    `json:"index"` // 0-100
	Level       string `json:"level"` // none, low, medium, high, critical
	WeightedSum int    `json:"weighted_sum"`
	ClauseCount int    `json:"clause_count"`
	Formula     string `json:"formula"`
}

// RiskReport is the root aggregate of one analysis run.
// It carries no timestamps or ids so identical input yields an identical value.
type RiskReport struct {
	ContractType   ContractTypePrediction `json:"contract_type"`
	Clauses        []Clause               `json:"clauses"`
	Findings       []Finding              `json:"findings"` // Ranked: severity desc, clause index asc
	TopRisks       []Finding              `json:"top_risks"`
	SeverityCounts map[Severity]int       `json:"severity_counts"`
	Score          RiskScore              `json:"score"`
	Assessments    []ClauseAssessment     `json:"assessments"`
	AuditTrail     []AuditEntry           `json:"audit_trail"`
}

// Entities holds key information pulled out of the contract text
type Entities struct {
	Amounts       []string `json:"amounts"`
	Dates         []string `json:"dates"`
	Jurisdictions []string `json:"jurisdictions"`
}

// SourceKind describes where the contract text came from
type SourceKind string

const (
	SourceFile  SourceKind = "file"
	SourceURL   SourceKind = "url"
	SourceStdin SourceKind = "stdin"
	SourceText  SourceKind = "text"
)

// Analysis wraps a RiskReport with run metadata for rendering and storage
type Analysis struct {
	Source     string      `json:"source"`
	SourceKind SourceKind  `json:"source_kind"`
	AnalyzedAt time.Time   `json:"analyzed_at"`
	Languages  []Language  `json:"languages"`
	Warnings   []string    `json:"warnings,omitempty"`
	Entities   Entities    `json:"entities"`
	Report     *RiskReport `json:"report"`
	Principles Principles  `json:"principles"`

	LLM *LLMSummary `json:"llm,omitempty"` // Optional LLM summary (separate, never affects score)
}

// Principles documents how the report should be read
type Principles struct {
	Heuristic     bool `json:"heuristic"`     // Pattern matching, not legal opinion
	Transparent   bool `json:"transparent"`   // Every finding traceable to a rule and text
	Deterministic bool `json:"deterministic"` // Same text, same report
}

// DefaultPrinciples returns the standard clauseguard principles
func DefaultPrinciples() Principles {
	return Principles{
		Heuristic:     true,
		Transparent:   true,
		Deterministic: true,
	}
}

// LLMSummary contains the optional plain-language summary
// It is generated after scoring and never changes findings or score
type LLMSummary struct {
	Enabled     bool     `json:"enabled"`
	Provider    string   `json:"provider,omitempty"`
	Model       string   `json:"model,omitempty"`
	StrictRules bool     `json:"strict_rules"`         // Whether rule-citation enforcement was enabled
	SummaryMD   string   `json:"summary_md,omitempty"` // Markdown summary
	Warnings    []string `json:"warnings,omitempty"`
}
