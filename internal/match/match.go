// Package match normalizes contract text and runs language-tagged patterns
// against it. Normalization keeps a byte map back to the raw text so every
// match can be reported verbatim.
package match

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/clauseguard/internal/model"
)

// Text is a normalized view of a raw string
type Text struct {
	Raw        string
	Normalized string

	// For every byte of Normalized, the raw byte range of the rune that produced it
	rawStart []int
	rawEnd   []int
}

// Normalize lowercases raw and collapses whitespace runs to a single space.
// Leading and trailing whitespace is dropped.
func Normalize(raw string) *Text {
	t := &Text{Raw: raw}

	var buf strings.Builder
	buf.Grow(len(raw))

	pendingSpace := -1 // raw offset of a whitespace run not yet written
	pendingEnd := -1
	var enc [utf8.UTFMax]byte

	for i, r := range raw {
		_, size := utf8.DecodeRuneInString(raw[i:])

		if unicode.IsSpace(r) {
			if pendingSpace < 0 {
				pendingSpace = i
			}
			pendingEnd = i + size
			continue
		}

		if pendingSpace >= 0 && buf.Len() > 0 {
			buf.WriteByte(' ')
			t.rawStart = append(t.rawStart, pendingSpace)
			t.rawEnd = append(t.rawEnd, pendingEnd)
		}
		pendingSpace = -1

		n := utf8.EncodeRune(enc[:], unicode.ToLower(r))
		buf.Write(enc[:n])
		for k := 0; k < n; k++ {
			t.rawStart = append(t.rawStart, i)
			t.rawEnd = append(t.rawEnd, i+size)
		}
	}

	t.Normalized = buf.String()
	return t
}

// NormalizeString returns only the normalized form of s
func NormalizeString(s string) string {
	return Normalize(s).Normalized
}

// RawRange maps a normalized byte range [start, end) back to the raw text
func (t *Text) RawRange(start, end int) (int, int) {
	if start < 0 || end > len(t.rawStart) || start >= end {
		return 0, 0
	}
	return t.rawStart[start], t.rawEnd[end-1]
}

// Span converts a normalized range into a verbatim raw span
func (t *Text) Span(start, end int) model.Span {
	rs, re := t.RawRange(start, end)
	return model.Span{Start: rs, End: re, Text: t.Raw[rs:re]}
}

// Matcher is a compiled pattern
type Matcher struct {
	pattern model.Pattern
	needle  string         // keyword patterns, normalized
	re      *regexp.Regexp // regex patterns
}

// Compile prepares a pattern for matching against normalized text
func Compile(p model.Pattern) (*Matcher, error) {
	if strings.TrimSpace(p.Value) == "" {
		return nil, fmt.Errorf("empty pattern value")
	}

	m := &Matcher{pattern: p}
	switch p.Kind {
	case model.PatternKeyword, "":
		m.pattern.Kind = model.PatternKeyword
		m.needle = NormalizeString(p.Value)
	case model.PatternRegex:
		re, err := regexp.Compile("(?i)" + p.Value)
		if err != nil {
			return nil, fmt.Errorf("compile regex %q: %w", p.Value, err)
		}
		m.re = re
	default:
		return nil, fmt.Errorf("unknown pattern kind: %s", p.Kind)
	}

	if m.pattern.Lang == "" {
		m.pattern.Lang = model.LanguageEnglish
	}

	return m, nil
}

// MustCompile is like Compile but panics on error. Used for built-in tables.
func MustCompile(p model.Pattern) *Matcher {
	m, err := Compile(p)
	if err != nil {
		panic(err)
	}
	return m
}

// Pattern returns the source pattern
func (m *Matcher) Pattern() model.Pattern {
	return m.pattern
}

// Lang returns the pattern's language tag
func (m *Matcher) Lang() model.Language {
	return m.pattern.Lang
}

// String returns the pattern value as written in the rule table
func (m *Matcher) String() string {
	return m.pattern.Value
}

// Match reports whether the pattern occurs in normalized text
func (m *Matcher) Match(normalized string) bool {
	if m.re != nil {
		return m.re.MatchString(normalized)
	}
	_, _, ok := m.findKeyword(normalized, 0)
	return ok
}

// FindAll returns every non-overlapping occurrence as normalized byte ranges
func (m *Matcher) FindAll(normalized string) [][2]int {
	var out [][2]int

	if m.re != nil {
		for _, loc := range m.re.FindAllStringIndex(normalized, -1) {
			if loc[1] > loc[0] {
				out = append(out, [2]int{loc[0], loc[1]})
			}
		}
		return out
	}

	from := 0
	for from < len(normalized) {
		start, end, ok := m.findKeyword(normalized, from)
		if !ok {
			break
		}
		out = append(out, [2]int{start, end})
		from = end
	}
	return out
}

// findKeyword finds the next occurrence of the needle at or after from that
// sits on word boundaries
func (m *Matcher) findKeyword(s string, from int) (int, int, bool) {
	for from <= len(s) {
		idx := strings.Index(s[from:], m.needle)
		if idx < 0 {
			return 0, 0, false
		}
		start := from + idx
		end := start + len(m.needle)
		if boundaryBefore(s, start, m.needle) && boundaryAfter(s, end, m.needle) {
			return start, end, true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		from = start + size
	}
	return 0, 0, false
}

func boundaryBefore(s string, start int, needle string) bool {
	if start == 0 {
		return true
	}
	first, _ := utf8.DecodeRuneInString(needle)
	if !isWordRune(first) {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:start])
	return !isWordRune(prev)
}

func boundaryAfter(s string, end int, needle string) bool {
	if end >= len(s) {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(needle)
	if !isWordRune(last) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(s[end:])
	return !isWordRune(next)
}

// isWordRune treats combining marks as word characters so Devanagari vowel
// signs do not create false boundaries
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
