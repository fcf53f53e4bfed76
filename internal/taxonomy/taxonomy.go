// Package taxonomy holds the read-only risk rule table and the contract-type
// signature keywords. The built-in table is embedded YAML; adding a rule is a
// data edit in rules.yaml.
package taxonomy

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ppiankov/clauseguard/internal/match"
	"github.com/ppiankov/clauseguard/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Keyword is a weighted signature keyword
type Keyword struct {
	Value  string         `yaml:"value"`
	Weight float64        `yaml:"weight"`
	Lang   model.Language `yaml:"lang"`
}

// Signature lists the keywords that identify one contract type
type Signature struct {
	Type     model.ContractType `yaml:"type"`
	Keywords []Keyword          `yaml:"keywords"`
}

// file is the on-disk schema
type file struct {
	Version    string           `yaml:"version"`
	Rules      []model.RiskRule `yaml:"rules"`
	Signatures []Signature      `yaml:"signatures"`
}

// CompiledRule pairs a rule with its compiled matchers (same order as Patterns)
type CompiledRule struct {
	model.RiskRule
	Matchers []*match.Matcher
}

// CompiledKeyword is a signature keyword ready for matching
type CompiledKeyword struct {
	Keyword
	Matcher *match.Matcher
}

// CompiledSignature is a signature with compiled keywords
type CompiledSignature struct {
	Type     model.ContractType
	Keywords []CompiledKeyword
}

// Taxonomy is the immutable rule table. Safe for concurrent use.
type Taxonomy struct {
	version    string
	rules      []CompiledRule
	byID       map[string]int
	signatures []CompiledSignature
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
	defaultErr  error
)

// Default returns the built-in taxonomy, parsed once per process
func Default() (*Taxonomy, error) {
	defaultOnce.Do(func() {
		defaultTax, defaultErr = Load(bytes.NewReader(defaultRules))
		if defaultErr != nil {
			defaultErr = fmt.Errorf("built-in rules: %w", defaultErr)
		}
	})
	return defaultTax, defaultErr
}

// LoadFile loads a rule table from a YAML file
func LoadFile(path string) (*Taxonomy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer func() { _ = f.Close() }()

	tax, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tax, nil
}

// Load parses and validates a rule table
func Load(r io.Reader) (*Taxonomy, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return build(f)
}

func build(f file) (*Taxonomy, error) {
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rule table is empty")
	}

	tax := &Taxonomy{
		version: f.Version,
		byID:    make(map[string]int, len(f.Rules)),
	}

	for i, rule := range f.Rules {
		compiled, err := compileRule(rule)
		if err != nil {
			id := rule.ID
			if id == "" {
				id = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("rule %s: %w", id, err)
		}
		if _, dup := tax.byID[compiled.ID]; dup {
			return nil, fmt.Errorf("rule %s: duplicate id", compiled.ID)
		}
		tax.byID[compiled.ID] = len(tax.rules)
		tax.rules = append(tax.rules, compiled)
	}

	seen := make(map[model.ContractType]bool)
	for _, sig := range f.Signatures {
		compiled, err := compileSignature(sig)
		if err != nil {
			return nil, fmt.Errorf("signature %s: %w", sig.Type, err)
		}
		if seen[sig.Type] {
			return nil, fmt.Errorf("signature %s: duplicate type", sig.Type)
		}
		seen[sig.Type] = true
		tax.signatures = append(tax.signatures, compiled)
	}

	return tax, nil
}

func compileRule(rule model.RiskRule) (CompiledRule, error) {
	rule.ID = strings.TrimSpace(rule.ID)
	if rule.ID == "" {
		return CompiledRule{}, fmt.Errorf("missing id")
	}
	if !rule.Category.Valid() {
		return CompiledRule{}, fmt.Errorf("unknown category %q", rule.Category)
	}
	sev, ok := model.ParseSeverity(string(rule.Severity))
	if !ok {
		return CompiledRule{}, fmt.Errorf("unknown severity %q", rule.Severity)
	}
	rule.Severity = sev
	if len(rule.Patterns) == 0 {
		return CompiledRule{}, fmt.Errorf("no patterns")
	}
	if strings.TrimSpace(rule.Explanation) == "" {
		return CompiledRule{}, fmt.Errorf("missing explanation")
	}
	if strings.TrimSpace(rule.Mitigation) == "" {
		return CompiledRule{}, fmt.Errorf("missing mitigation")
	}
	rule.Explanation = strings.TrimSpace(rule.Explanation)
	rule.Mitigation = strings.TrimSpace(rule.Mitigation)

	matchers := make([]*match.Matcher, 0, len(rule.Patterns))
	for i, p := range rule.Patterns {
		if p.Lang != "" && !p.Lang.Valid() {
			return CompiledRule{}, fmt.Errorf("pattern %d: unsupported language %q", i, p.Lang)
		}
		m, err := match.Compile(p)
		if err != nil {
			return CompiledRule{}, fmt.Errorf("pattern %d: %w", i, err)
		}
		rule.Patterns[i] = m.Pattern()
		matchers = append(matchers, m)
	}

	return CompiledRule{RiskRule: rule, Matchers: matchers}, nil
}

func compileSignature(sig Signature) (CompiledSignature, error) {
	known := false
	for _, t := range model.ContractTypePriority {
		if sig.Type == t {
			known = true
			break
		}
	}
	if !known {
		return CompiledSignature{}, fmt.Errorf("unknown contract type")
	}

	out := CompiledSignature{Type: sig.Type}
	for _, kw := range sig.Keywords {
		if kw.Weight == 0 {
			kw.Weight = 1
		}
		if kw.Weight < 0 {
			return CompiledSignature{}, fmt.Errorf("keyword %q: negative weight", kw.Value)
		}
		if kw.Lang != "" && !kw.Lang.Valid() {
			return CompiledSignature{}, fmt.Errorf("keyword %q: unsupported language %q", kw.Value, kw.Lang)
		}
		m, err := match.Compile(model.Pattern{Kind: model.PatternKeyword, Value: kw.Value, Lang: kw.Lang})
		if err != nil {
			return CompiledSignature{}, fmt.Errorf("keyword %q: %w", kw.Value, err)
		}
		kw.Lang = m.Lang()
		out.Keywords = append(out.Keywords, CompiledKeyword{Keyword: kw, Matcher: m})
	}
	return out, nil
}

// Version returns the table version string
func (t *Taxonomy) Version() string {
	return t.version
}

// Len returns the number of rules
func (t *Taxonomy) Len() int {
	return len(t.rules)
}

// RulesFor returns rules in table order, optionally filtered by category
func (t *Taxonomy) RulesFor(categories ...model.Category) []model.RiskRule {
	out := make([]model.RiskRule, 0, len(t.rules))
	for _, cr := range t.Compiled(categories...) {
		out = append(out, cr.RiskRule)
	}
	return out
}

// Compiled returns compiled rules in table order, optionally filtered by category
func (t *Taxonomy) Compiled(categories ...model.Category) []CompiledRule {
	if len(categories) == 0 {
		return t.rules
	}

	want := make(map[model.Category]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}

	var out []CompiledRule
	for _, cr := range t.rules {
		if want[cr.Category] {
			out = append(out, cr)
		}
	}
	return out
}

// Rule looks up a rule by id
func (t *Taxonomy) Rule(id string) (model.RiskRule, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return model.RiskRule{}, false
	}
	return t.rules[idx].RiskRule, true
}

// Signatures returns the contract-type signatures in table order
func (t *Taxonomy) Signatures() []CompiledSignature {
	return t.signatures
}
