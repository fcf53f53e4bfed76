package classify

import (
	"errors"
	"unicode"

	"github.com/ppiankov/clauseguard/internal/model"
)

// ErrUnknownLanguage means the text is in neither supported script. Callers
// fall back to English patterns and surface it as a warning.
var ErrUnknownLanguage = errors.New("unknown language: text matches neither English nor Hindi script")

const (
	// Hindi patterns activate when Devanagari reaches this share of letters...
	hindiShare = 0.10
	// ...or this absolute count, so a short Hindi clause in an English
	// contract still gets Hindi rules
	hindiMinLetters = 20
	// Below this Latin share (and without Hindi) the text is unknown
	latinShare = 0.5
)

// LanguageStats are letter counts by script
type LanguageStats struct {
	Latin      int
	Devanagari int
	Other      int
}

// Letters returns the total letter count
func (s LanguageStats) Letters() int {
	return s.Latin + s.Devanagari + s.Other
}

// CountScripts tallies letters by script
func CountScripts(text string) LanguageStats {
	var s LanguageStats
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		switch {
		case unicode.Is(unicode.Latin, r):
			s.Latin++
		case unicode.Is(unicode.Devanagari, r):
			s.Devanagari++
		default:
			s.Other++
		}
	}
	return s
}

// DetectLanguage returns the pattern languages to activate for text.
// English is always active. Hindi is added when Devanagari is present
// strongly enough. When neither script dominates, the result is English
// alone together with ErrUnknownLanguage.
func DetectLanguage(text string) ([]model.Language, error) {
	s := CountScripts(text)
	letters := s.Letters()

	langs := []model.Language{model.LanguageEnglish}
	if letters == 0 {
		return langs, ErrUnknownLanguage
	}

	hindi := s.Devanagari >= hindiMinLetters ||
		(s.Devanagari > 0 && float64(s.Devanagari)/float64(letters) >= hindiShare)
	if hindi {
		return append(langs, model.LanguageHindi), nil
	}

	if float64(s.Latin)/float64(letters) < latinShare {
		return langs, ErrUnknownLanguage
	}
	return langs, nil
}
