package extract

import (
	"reflect"
	"testing"
)

const entityContract = `The Tenant shall pay ₹1,00,000 as advance and a deposit of 5 lakh.
Rent of Rs. 25,000/- is due on 12/03/2024 and again on 01-04-2024. Reference 45/13/2024 is not a date.
The courts of Delhi shall have jurisdiction; arbitration is seated in Mumbai, India.`

func TestEntities(t *testing.T) {
	got := Entities(entityContract)

	if want := []string{"₹1,00,000", "5 lakh", "Rs. 25,000/-"}; !reflect.DeepEqual(got.Amounts, want) {
		t.Errorf("Amounts = %q, want %q", got.Amounts, want)
	}
	if want := []string{"12/03/2024", "01-04-2024"}; !reflect.DeepEqual(got.Dates, want) {
		t.Errorf("Dates = %q, want %q", got.Dates, want)
	}
	if want := []string{"Delhi", "Mumbai", "India"}; !reflect.DeepEqual(got.Jurisdictions, want) {
		t.Errorf("Jurisdictions = %q, want %q", got.Jurisdictions, want)
	}
}

func TestAmounts(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"a fee of $2,000.50 per month", []string{"$2,000.50"}},
		{"Rs.500 and INR 1,200", []string{"Rs.500", "INR 1,200"}},
		{"damages up to 2 crore", []string{"2 crore"}},
		{"₹ 3 lakhs payable", []string{"₹ 3 lakhs"}},
		{"Rs. 25,000, payable monthly", []string{"Rs. 25,000"}},
		{"pay ₹500 now and ₹500 later", []string{"₹500"}},
		{"no money here", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Amounts(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Amounts(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestJurisdictions(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"subject to the Courts at Pune only", []string{"Pune"}},
		{"governed by the laws of tamil  nadu", []string{"Tamil Nadu"}},
		{"the courts of Port Blair", []string{"Port Blair"}},
		{"subject to the courts of New Delhi", []string{"New Delhi"}},
		{"registered office at New Delhi, branch at Mumbai", []string{"New Delhi", "Mumbai"}},
		{"signed at New Delhi; courts at Delhi", []string{"New Delhi", "Delhi"}},
		{"Madhya Pradesh and Uttar Pradesh", []string{"Madhya Pradesh", "Uttar Pradesh"}},
		{"no venue named", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Jurisdictions(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Jurisdictions(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
