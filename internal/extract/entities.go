package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/clauseguard/internal/model"
)

var (
	currencyAmountRe = regexp.MustCompile(`(?i)(?:₹|\bRs\.?|\bINR|\$|\bUSD)\s?\d+(?:,\d+)*(?:\.\d+)?(?:\s?(?:lakhs?|crores?)\b)?(?:\s?/-)?`)
	unitAmountRe     = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?(?:lakhs?|crores?)\b`)
	numericDateRe    = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	courtsOfRe       = regexp.MustCompile(`\b[Cc]ourts?\s+(?:of|at|in)\s+([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)?)`)
)

// Places recognized as jurisdictions, matched case-insensitively on word
// boundaries and reported in this spelling
var knownJurisdictions = []string{
	"India",
	"Delhi", "New Delhi", "Mumbai", "Bombay", "Chennai", "Madras", "Kolkata", "Calcutta",
	"Bengaluru", "Bangalore", "Hyderabad", "Pune", "Ahmedabad", "Jaipur", "Lucknow",
	"Chandigarh", "Gurugram", "Gurgaon", "Noida", "Kochi",
	"Andhra Pradesh", "Assam", "Bihar", "Goa", "Gujarat", "Haryana", "Karnataka",
	"Kerala", "Madhya Pradesh", "Maharashtra", "Odisha", "Punjab", "Rajasthan",
	"Tamil Nadu", "Telangana", "Uttar Pradesh", "Uttarakhand", "West Bengal",
}

var jurisdictionRes = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(knownJurisdictions))
	for i, name := range knownJurisdictions {
		out[i] = regexp.MustCompile(`(?i)\b` + strings.ReplaceAll(regexp.QuoteMeta(name), " ", `\s+`) + `\b`)
	}
	return out
}()

// Entities extracts amounts, dates and jurisdictions from contract text.
// Each list keeps first-seen order and drops case-insensitive duplicates.
func Entities(text string) model.Entities {
	return model.Entities{
		Amounts:       Amounts(text),
		Dates:         Dates(text),
		Jurisdictions: Jurisdictions(text),
	}
}

// Amounts finds currency amounts (₹, Rs., INR, $, USD) and lakh/crore figures
func Amounts(text string) []string {
	type hit struct {
		start int
		text  string
	}
	var hits []hit
	covered := currencyAmountRe.FindAllStringIndex(text, -1)
	for _, loc := range covered {
		hits = append(hits, hit{loc[0], text[loc[0]:loc[1]]})
	}

	// Bare "5 lakh" figures not already part of a currency amount
	for _, loc := range unitAmountRe.FindAllStringIndex(text, -1) {
		inside := false
		for _, c := range covered {
			if loc[0] >= c[0] && loc[1] <= c[1] {
				inside = true
				break
			}
		}
		if !inside {
			hits = append(hits, hit{loc[0], text[loc[0]:loc[1]]})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	var out []string
	for _, h := range hits {
		out = append(out, strings.TrimSpace(h.text))
	}
	return dedupe(out)
}

// Dates finds dd/mm/yyyy and dd-mm-yyyy dates with a plausible day and month
func Dates(text string) []string {
	var out []string
	for _, m := range numericDateRe.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if day < 1 || day > 31 || month < 1 || month > 12 {
			continue
		}
		out = append(out, m[0])
	}
	return dedupe(out)
}

// Jurisdictions finds known Indian places and any "courts of X" venue.
// A place inside a longer match ("Delhi" in "New Delhi") is not reported.
func Jurisdictions(text string) []string {
	type hit struct {
		start, end int
		name       string
	}
	var hits []hit
	for i, re := range jurisdictionRes {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			hits = append(hits, hit{loc[0], loc[1], knownJurisdictions[i]})
		}
	}
	for _, m := range courtsOfRe.FindAllStringSubmatchIndex(text, -1) {
		hits = append(hits, hit{m[2], m[3], text[m[2]:m[3]]})
	}

	kept := hits[:0:0]
	for _, h := range hits {
		inside := false
		for _, o := range hits {
			if o.start <= h.start && h.end <= o.end && o.end-o.start > h.end-h.start {
				inside = true
				break
			}
		}
		if !inside {
			kept = append(kept, h)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].start < kept[j].start })

	var out []string
	for _, h := range kept {
		out = append(out, h.name)
	}
	return dedupe(out)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
