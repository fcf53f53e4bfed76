package analyze

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/segment"
	"github.com/ppiankov/clauseguard/internal/taxonomy"
)

var english = []model.Language{model.LanguageEnglish}

func defaultAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	tax, err := taxonomy.Default()
	if err != nil {
		t.Fatal(err)
	}
	return New(tax)
}

func clauseOf(t *testing.T, text string) model.Clause {
	t.Helper()
	clauses, err := segment.Segment(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(clauses) != 1 {
		t.Fatalf("expected one clause for %q, got %d", text, len(clauses))
	}
	return clauses[0]
}

func findingFor(findings []model.Finding, ruleID string) (model.Finding, bool) {
	for _, f := range findings {
		if f.RuleID == ruleID {
			return f, true
		}
	}
	return model.Finding{}, false
}

func TestAnalyze_TerminationWithoutNotice(t *testing.T) {
	a := defaultAnalyzer(t)
	clause := clauseOf(t, "This Agreement may be terminated by either party without notice.")

	findings := a.Analyze(clause, english)

	var term *model.Finding
	for i := range findings {
		if findings[i].Category == model.CategoryTermination && findings[i].Severity.Weight() >= model.SeverityMedium.Weight() {
			term = &findings[i]
			break
		}
	}
	if term == nil {
		t.Fatalf("expected a termination finding with severity >= medium, got %+v", findings)
	}
	if term.RuleID != "TERM-001" {
		t.Errorf("expected TERM-001, got %s", term.RuleID)
	}
	if term.MatchedText != "terminated by either party without notice" {
		t.Errorf("unexpected matched text %q", term.MatchedText)
	}
	if term.ClauseIndex != 0 {
		t.Errorf("expected clause index 0, got %d", term.ClauseIndex)
	}

	if _, ok := findingFor(findings, "UNI-001"); !ok {
		t.Error("expected UNI-001 to fire as well (no first-match short-circuit)")
	}
}

func TestAnalyze_SpansAreVerbatim(t *testing.T) {
	a := defaultAnalyzer(t)
	clause := clauseOf(t, "The Company may act WITHOUT   Notice, and again without notice.")

	f, ok := findingFor(a.Analyze(clause, english), "UNI-001")
	if !ok {
		t.Fatal("expected UNI-001")
	}
	if len(f.Spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(f.Spans))
	}
	if f.Spans[0].Text != "WITHOUT   Notice" || f.MatchedText != "WITHOUT   Notice" {
		t.Errorf("expected verbatim first span, got %q", f.Spans[0].Text)
	}
	for _, s := range f.Spans {
		if clause.Text[s.Start:s.End] != s.Text {
			t.Errorf("span %+v does not index clause text", s)
		}
	}
	if f.Spans[0].Start >= f.Spans[1].Start {
		t.Error("spans not sorted by position")
	}
}

func TestAnalyze_RuleFiresOncePerClause(t *testing.T) {
	tax, err := taxonomy.Load(strings.NewReader(`
rules:
  - id: T1
    category: termination
    title: Termination without notice
    severity: high
    patterns:
      - {kind: keyword, value: terminate without notice}
    explanation: e
    mitigation: m
`))
	if err != nil {
		t.Fatal(err)
	}

	clause := clauseOf(t, "The Landlord may terminate without notice, and the Tenant may terminate without notice too.")
	findings := New(tax).Analyze(clause, english)

	if len(findings) != 1 {
		t.Fatalf("expected exactly 1 finding, got %d", len(findings))
	}
	if len(findings[0].Spans) != 2 {
		t.Errorf("expected both occurrences recorded as spans, got %d", len(findings[0].Spans))
	}
}

func TestAnalyze_LanguageGating(t *testing.T) {
	a := defaultAnalyzer(t)
	clause := clauseOf(t, "मकान मालिक बिना सूचना के किरायेदार को निकाल सकता है।")

	if _, ok := findingFor(a.Analyze(clause, english), "UNI-001"); ok {
		t.Error("Hindi pattern fired with only English active")
	}

	f, ok := findingFor(a.Analyze(clause, []model.Language{model.LanguageEnglish, model.LanguageHindi}), "UNI-001")
	if !ok {
		t.Fatal("expected UNI-001 with Hindi active")
	}
	if f.MatchedText != "बिना सूचना" {
		t.Errorf("unexpected matched text %q", f.MatchedText)
	}
}

func TestAnalyze_NoMatches(t *testing.T) {
	a := defaultAnalyzer(t)
	clause := clauseOf(t, "The parties met on a sunny afternoon.")

	if findings := a.Analyze(clause, english); len(findings) != 0 {
		t.Errorf("expected no findings, got %+v", findings)
	}
}

func TestAnalyze_DeterministicAndTableOrder(t *testing.T) {
	tax, err := taxonomy.Default()
	if err != nil {
		t.Fatal(err)
	}
	a := New(tax)
	clause := clauseOf(t, "The Supplier shall indemnify the Buyer and pay a penalty, and the Buyer may terminate without notice at its sole discretion.")

	first := a.Analyze(clause, english)
	second := a.Analyze(clause, english)
	if !reflect.DeepEqual(first, second) {
		t.Error("analyze is not deterministic")
	}

	pos := make(map[string]int)
	for i, r := range tax.RulesFor() {
		pos[r.ID] = i
	}
	for i := 1; i < len(first); i++ {
		if pos[first[i-1].RuleID] > pos[first[i].RuleID] {
			t.Errorf("findings out of table order: %s before %s", first[i-1].RuleID, first[i].RuleID)
		}
	}

	for _, id := range []string{"IND-001", "PEN-001", "TERM-001", "UNI-001", "UNI-002"} {
		if _, ok := findingFor(first, id); !ok {
			t.Errorf("expected %s to fire", id)
		}
	}
}

func TestAnalyze_CategoryFilter(t *testing.T) {
	tax, err := taxonomy.Default()
	if err != nil {
		t.Fatal(err)
	}
	a := New(tax, model.CategoryPayment)
	clause := clauseOf(t, "A penalty applies to late payments.")

	findings := a.Analyze(clause, english)
	if len(findings) == 0 {
		t.Fatal("expected a payment finding")
	}
	for _, f := range findings {
		if f.Category != model.CategoryPayment {
			t.Errorf("unexpected category %s", f.Category)
		}
	}
}

func TestClauseType(t *testing.T) {
	tests := []struct {
		text string
		want model.ClauseType
	}{
		{"The Tenant shall not sublet the premises.", model.ClauseTypeProhibition},
		{"Smoking is prohibited on the premises.", model.ClauseTypeProhibition},
		{"The Tenant shall pay rent monthly.", model.ClauseTypeObligation},
		{"Either party may terminate this Agreement.", model.ClauseTypeRight},
		{"This Agreement is governed by Indian law.", model.ClauseTypeNeutral},
		{"किरायेदार परिसर खाली नहीं करेगा।", model.ClauseTypeProhibition},
		{"किरायेदार किराया देगा और मरम्मत करेगा।", model.ClauseTypeObligation},
	}

	for _, tt := range tests {
		if got := ClauseType(clauseOf(t, tt.text)); got != tt.want {
			t.Errorf("ClauseType(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}
