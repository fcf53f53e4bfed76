// Package classify predicts a contract's type from weighted signature
// keywords and detects which pattern languages apply to a document.
package classify

import (
	"github.com/ppiankov/clauseguard/internal/match"
	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/taxonomy"
)

// Classifier scores documents against the taxonomy's contract signatures
type Classifier struct {
	signatures []taxonomy.CompiledSignature
}

// New creates a classifier over the taxonomy's signatures
func New(tax *taxonomy.Taxonomy) *Classifier {
	return &Classifier{signatures: tax.Signatures()}
}

// Classify predicts the contract type of text.
//
// Each distinct signature keyword present contributes its weight once to its
// type. The winner is the highest score, ties resolved by
// model.ContractTypePriority. Confidence is the winner's share of the total
// matched weight. A document with no signature hits is Other with confidence 0.
func (c *Classifier) Classify(text string) model.ContractTypePrediction {
	return c.ClassifyNormalized(match.NormalizeString(text))
}

// ClassifyNormalized is Classify for text that is already normalized
func (c *Classifier) ClassifyNormalized(normalized string) model.ContractTypePrediction {
	scores := make(map[model.ContractType]float64, len(model.ContractTypePriority))
	for _, t := range model.ContractTypePriority {
		scores[t] = 0
	}

	var total float64
	for _, sig := range c.signatures {
		for _, kw := range sig.Keywords {
			if kw.Matcher.Match(normalized) {
				scores[sig.Type] += kw.Weight
				total += kw.Weight
			}
		}
	}

	pred := model.ContractTypePrediction{
		Type:   model.ContractOther,
		Scores: scores,
	}
	if total == 0 {
		return pred
	}

	best := 0.0
	for _, t := range model.ContractTypePriority {
		// Strict comparison keeps the earlier (higher priority) type on ties
		if scores[t] > best {
			best = scores[t]
			pred.Type = t
		}
	}
	pred.Confidence = best / total

	return pred
}
