package segment

import (
	"errors"
	"strings"
	"testing"
	"unicode"
)

const sampleLease = `LEASE AGREEMENT

This Lease Agreement is made on 12/03/2024 between Mr. A. Kumar ("Landlord") and XYZ Pvt. Ltd. ("Tenant").

1. Term. The lease runs for 11 months. It renews automatically unless either party objects.
2. Rent. The Tenant shall pay Rs. 25,000 per month, e.g. by bank transfer. A late fee of 2% applies!
3. Termination
(a) The Landlord may terminate this Agreement without notice.
(b) The Tenant must not sublet the premises.

Article 4 Jurisdiction: courts of Delhi shall have exclusive jurisdiction.
किरायेदार बिना सूचना के परिसर खाली नहीं करेगा। मकान मालिक जुर्माना लगा सकता है।
`

func TestSegment_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\t", "--- ... ***"} {
		_, err := Segment(in)
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Segment(%q): expected ErrEmptyInput, got %v", in, err)
		}
	}
}

func TestSegment_SingleSentence(t *testing.T) {
	text := "This Agreement may be terminated by either party without notice."
	clauses, err := Segment(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(clauses) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(clauses))
	}
	if clauses[0].Text != text {
		t.Errorf("unexpected clause text %q", clauses[0].Text)
	}
	if clauses[0].Normalized != strings.ToLower(text) {
		t.Errorf("unexpected normalized text %q", clauses[0].Normalized)
	}
}

func TestSegment_OffsetsReconstructDocument(t *testing.T) {
	clauses, err := Segment(sampleLease)
	if err != nil {
		t.Fatal(err)
	}
	if len(clauses) == 0 {
		t.Fatal("expected clauses")
	}

	prevEnd := 0
	for i, c := range clauses {
		if c.Index != i {
			t.Errorf("clause %d has index %d", i, c.Index)
		}
		if c.Start < prevEnd || c.End <= c.Start {
			t.Fatalf("clause %d offsets [%d,%d) overlap or are empty (prev end %d)", i, c.Start, c.End, prevEnd)
		}
		if sampleLease[c.Start:c.End] != c.Text {
			t.Errorf("clause %d text does not match source offsets", i)
		}
		if gap := sampleLease[prevEnd:c.Start]; strings.TrimSpace(gap) != "" {
			t.Errorf("non-whitespace dropped before clause %d: %q", i, gap)
		}
		prevEnd = c.End
	}
	if tail := sampleLease[prevEnd:]; strings.TrimSpace(tail) != "" {
		t.Errorf("non-whitespace dropped at end: %q", tail)
	}
}

func TestSegment_StructuralAndSentenceCuts(t *testing.T) {
	clauses, err := Segment(sampleLease)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"LEASE AGREEMENT",
		`This Lease Agreement is made on 12/03/2024 between Mr. A. Kumar ("Landlord") and XYZ Pvt. Ltd. ("Tenant").`,
		"1. Term.",
		"The lease runs for 11 months.",
		"It renews automatically unless either party objects.",
		"2. Rent.",
		"The Tenant shall pay Rs. 25,000 per month, e.g. by bank transfer.",
		"A late fee of 2% applies!",
		"3. Termination",
		"(a) The Landlord may terminate this Agreement without notice.",
		"(b) The Tenant must not sublet the premises.",
		"Article 4 Jurisdiction: courts of Delhi shall have exclusive jurisdiction.",
		"किरायेदार बिना सूचना के परिसर खाली नहीं करेगा।",
		"मकान मालिक जुर्माना लगा सकता है।",
	}

	if len(clauses) != len(want) {
		for _, c := range clauses {
			t.Logf("clause %d: %q", c.Index, c.Text)
		}
		t.Fatalf("expected %d clauses, got %d", len(want), len(clauses))
	}
	for i, w := range want {
		if clauses[i].Text != w {
			t.Errorf("clause %d: expected %q, got %q", i, w, clauses[i].Text)
		}
	}
}

func TestSegment_Idempotent(t *testing.T) {
	docs := []string{
		sampleLease,
		"The Supplier shall deliver the goods. Payment is due in 30 days. No. 5 of the schedule applies.",
		"Payment is due. 5. The rest follows here.",
		"---\n\n1. Foo bar baz.",
		"Either party may terminate. 12 34",
		strings.ReplaceAll(sampleLease, "\n", "\r\n"),
		"The tenant shall pay rent.\r\nSigned:\r\nA.\r\n\r\nWitness present.",
		"Schedule\r\n(b)\r\nThe deposit is refundable.\r\nSection 2\r\n",
	}

	for _, doc := range docs {
		clauses, err := Segment(doc)
		if err != nil {
			t.Fatal(err)
		}
		for _, c := range clauses {
			again, err := Segment(c.Text)
			if err != nil {
				t.Fatalf("re-segment %q: %v", c.Text, err)
			}
			if len(again) != 1 || again[0].Text != c.Text {
				t.Errorf("clause %q re-segmented into %d pieces", c.Text, len(again))
			}
		}
	}
}

func TestSegment_LetterlessFragmentsMerge(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"leading rule", "---\n\nThe Tenant shall pay.", []string{"---\n\nThe Tenant shall pay."}},
		{"trailing numbers", "Either party may terminate. 12 34", []string{"Either party may terminate. 12 34"}},
		{"mid-line number", "Payment is due. 5. The rest follows.", []string{"Payment is due.", "5. The rest follows."}},
		{"digits only", "2024", []string{"2024"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clauses, err := Segment(tt.text)
			if err != nil {
				t.Fatal(err)
			}
			if len(clauses) != len(tt.want) {
				t.Fatalf("expected %d clauses, got %d", len(tt.want), len(clauses))
			}
			for i, w := range tt.want {
				if clauses[i].Text != w {
					t.Errorf("clause %d: expected %q, got %q", i, w, clauses[i].Text)
				}
			}
		})
	}
}

func TestSegment_NoEmptyClauses(t *testing.T) {
	clauses, err := Segment("\n\n  A.  \n\n\n  B shall pay.  \n\n")
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range clauses {
		if strings.TrimFunc(c.Text, unicode.IsSpace) != c.Text || c.Text == "" {
			t.Errorf("clause %d is empty or untrimmed: %q", c.Index, c.Text)
		}
	}
}

func TestSegment_CRLFMatchesLF(t *testing.T) {
	docs := []string{
		sampleLease,
		"The tenant shall pay rent.\nSigned:\nA.\n\nWitness present.",
	}

	for _, lf := range docs {
		crlf := strings.ReplaceAll(lf, "\n", "\r\n")

		want, err := Segment(lf)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Segment(crlf)
		if err != nil {
			t.Fatal(err)
		}

		if len(got) != len(want) {
			t.Fatalf("CRLF gave %d clauses, LF gave %d", len(got), len(want))
		}
		for i := range want {
			if g := strings.ReplaceAll(got[i].Text, "\r", ""); g != want[i].Text {
				t.Errorf("clause %d: CRLF %q, LF %q", i, g, want[i].Text)
			}
			if crlf[got[i].Start:got[i].End] != got[i].Text {
				t.Errorf("clause %d offsets do not match the CRLF source", i)
			}
		}
	}
}
