package analyze

import (
	"github.com/ppiankov/clauseguard/internal/match"
	"github.com/ppiankov/clauseguard/internal/model"
)

// Modal phrases by clause type, strongest first
var clauseTypeMarkers = []struct {
	typ      model.ClauseType
	matchers []*match.Matcher
}{
	{model.ClauseTypeProhibition, keywords(
		"shall not", "must not", "will not", "may not", "prohibited", "is not permitted",
		"नहीं करेगा", "नहीं करेगी", "वर्जित",
	)},
	{model.ClauseTypeObligation, keywords(
		"shall", "must", "is required to", "agrees to", "undertakes to",
		"करेगा", "करेगी", "होगा",
	)},
	{model.ClauseTypeRight, keywords(
		"may", "can", "is entitled to", "has the right to",
		"सकता", "सकती", "अधिकार",
	)},
}

func keywords(values ...string) []*match.Matcher {
	out := make([]*match.Matcher, len(values))
	for i, v := range values {
		out[i] = match.MustCompile(model.Pattern{Kind: model.PatternKeyword, Value: v})
	}
	return out
}

// ClauseType labels a clause as a prohibition, obligation, right or neutral
// statement from its modal verbs. A prohibition outranks an obligation, which
// outranks a right.
func ClauseType(clause model.Clause) model.ClauseType {
	normalized := clause.Normalized
	if normalized == "" {
		normalized = match.NormalizeString(clause.Text)
	}

	for _, marker := range clauseTypeMarkers {
		for _, m := range marker.matchers {
			if m.Match(normalized) {
				return marker.typ
			}
		}
	}
	return model.ClauseTypeNeutral
}
