package classify

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/taxonomy"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	tax, err := taxonomy.Default()
	if err != nil {
		t.Fatal(err)
	}
	return New(tax)
}

func TestClassify_SingleTypeSignatures(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		text string
		want model.ContractType
	}{
		{"The Disclosing Party shares Confidential Information with the Receiving Party.", model.ContractNDA},
		{"The Employee will receive a monthly salary after probation.", model.ContractEmployment},
		{"The Landlord leases the premises to the Tenant for a monthly rent.", model.ContractLease},
		{"The Service Provider will deliver the deliverables in the statement of work.", model.ContractServiceAgreement},
		{"The Seller will ship the goods to the Buyer under the purchase order.", model.ContractSalesPurchase},
		{"मकान मालिक और किरायेदार के बीच किराया समझौता", model.ContractLease},
	}

	for _, tt := range tests {
		pred := c.Classify(tt.text)
		if pred.Type != tt.want {
			t.Errorf("Classify(%q) = %s, want %s (scores %v)", tt.text, pred.Type, tt.want, pred.Scores)
		}
		if pred.Confidence <= 0 || pred.Confidence > 1 {
			t.Errorf("Classify(%q) confidence %v out of range", tt.text, pred.Confidence)
		}
	}
}

func TestClassify_NoMatchIsOther(t *testing.T) {
	c := newClassifier(t)

	pred := c.Classify("The quick brown fox jumps over the lazy dog.")
	if pred.Type != model.ContractOther {
		t.Errorf("expected other, got %s", pred.Type)
	}
	if pred.Confidence != 0 {
		t.Errorf("expected confidence 0, got %v", pred.Confidence)
	}
	if len(pred.Scores) != len(model.ContractTypePriority) {
		t.Errorf("expected a score for every candidate type, got %v", pred.Scores)
	}
}

func TestClassify_KeywordCountsOnce(t *testing.T) {
	c := newClassifier(t)

	once := c.Classify("tenant")
	many := c.Classify(strings.Repeat("tenant ", 10))
	if once.Scores[model.ContractLease] != many.Scores[model.ContractLease] {
		t.Errorf("repeated keyword changed score: %v vs %v", once.Scores[model.ContractLease], many.Scores[model.ContractLease])
	}
}

func TestClassify_TieUsesPriority(t *testing.T) {
	tax, err := taxonomy.Load(strings.NewReader(`
rules:
  - id: R1
    category: payment
    title: t
    severity: low
    patterns: [{value: pay}]
    explanation: e
    mitigation: m
signatures:
  - type: sales_purchase
    keywords: [{value: alpha, weight: 2}]
  - type: lease
    keywords: [{value: beta, weight: 2}]
`))
	if err != nil {
		t.Fatal(err)
	}

	pred := New(tax).Classify("alpha and beta")
	if pred.Type != model.ContractLease {
		t.Errorf("expected lease to win tie over sales_purchase, got %s", pred.Type)
	}
	if math.Abs(pred.Confidence-0.5) > 1e-9 {
		t.Errorf("expected confidence 0.5, got %v", pred.Confidence)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newClassifier(t)
	text := "The Employee shall not disclose Confidential Information of the Employer."

	first := c.Classify(text)
	for i := 0; i < 20; i++ {
		if got := c.Classify(text); got.Type != first.Type || got.Confidence != first.Confidence {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []model.Language
		wantErr error
	}{
		{"english", "The Tenant shall pay rent.", []model.Language{model.LanguageEnglish}, nil},
		{"hindi", "किरायेदार बिना सूचना के परिसर खाली नहीं करेगा", []model.Language{model.LanguageEnglish, model.LanguageHindi}, nil},
		{"mixed", "The Landlord may terminate. मकान मालिक जुर्माना लगा सकता है।", []model.Language{model.LanguageEnglish, model.LanguageHindi}, nil},
		{"no letters", "12345 67/89", []model.Language{model.LanguageEnglish}, ErrUnknownLanguage},
		{"other script", "Арендатор обязан платить аренду", []model.Language{model.LanguageEnglish}, ErrUnknownLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectLanguage(tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestCountScripts(t *testing.T) {
	s := CountScripts("ab कि 1!")
	if s.Latin != 2 {
		t.Errorf("expected 2 latin letters, got %d", s.Latin)
	}
	// 'क' is a letter, the vowel sign is a mark
	if s.Devanagari != 1 {
		t.Errorf("expected 1 devanagari letter, got %d", s.Devanagari)
	}
}
