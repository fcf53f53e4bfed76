package model

import "strings"

// Severity is the ordinal risk level attached to a rule
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists all severities from lowest to highest
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Weight returns the scoring weight (Low=1 .. Critical=4), 0 for unknown values
func (s Severity) Weight() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Valid reports whether s is one of the four known severities
func (s Severity) Valid() bool {
	return s.Weight() > 0
}

// ParseSeverity parses a case-insensitive severity name
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	return sev, sev.Valid()
}

// Category groups risk rules by the kind of exposure they describe
type Category string

const (
	CategoryTermination      Category = "termination"
	CategoryLiability        Category = "liability"
	CategoryPayment          Category = "payment"
	CategoryIndemnityPenalty Category = "indemnity_penalty"
	CategoryConfidentiality  Category = "confidentiality"
	CategoryJurisdiction     Category = "jurisdiction"
	CategoryAutoRenewal      Category = "auto_renewal"
	CategoryNonCompete       Category = "non_compete"
	CategoryIPTransfer       Category = "ip_transfer"
	CategoryUnilateralRights Category = "unilateral_rights"
)

// Categories lists every known category in display order
var Categories = []Category{
	CategoryTermination,
	CategoryLiability,
	CategoryPayment,
	CategoryIndemnityPenalty,
	CategoryConfidentiality,
	CategoryJurisdiction,
	CategoryAutoRenewal,
	CategoryNonCompete,
	CategoryIPTransfer,
	CategoryUnilateralRights,
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Language tags a pattern with the language it is written in
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
)

// Valid reports whether l is a supported language
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageHindi
}

// PatternKind selects how a pattern value is matched
type PatternKind string

const (
	PatternKeyword PatternKind = "keyword" // Case-insensitive phrase on word boundaries
	PatternRegex   PatternKind = "regex"   // Case-insensitive regular expression
)

// Pattern is one matcher of a rule
type Pattern struct {
	Kind  PatternKind `json:"kind" yaml:"kind"`
	Value string      `json:"value" yaml:"value"`
	Lang  Language    `json:"lang" yaml:"lang"`
}

// RiskRule describes one known risky contract pattern
type RiskRule struct {
	ID          string    `json:"id" yaml:"id"`
	Category    Category  `json:"category" yaml:"category"`
	Title       string    `json:"title" yaml:"title"`
	Patterns    []Pattern `json:"patterns" yaml:"patterns"`
	Severity    Severity  `json:"severity" yaml:"severity"`
	Explanation string    `json:"explanation" yaml:"explanation"`
	Mitigation  string    `json:"mitigation" yaml:"mitigation"`
}

// Finding records that one rule matched one clause
type Finding struct {
	ClauseIndex int      `json:"clause_index"`
	RuleID      string   `json:"rule_id"`
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Pattern     string   `json:"pattern"`      // First pattern of the rule that matched
	MatchedText string   `json:"matched_text"` // Verbatim text of the first span
	Spans       []Span   `json:"spans"`
	Severity    Severity `json:"severity"`
	Explanation string   `json:"explanation"`
	Mitigation  string   `json:"mitigation"`
}
