// Package segment splits contract text into clauses.
//
// Cuts are made at structural boundaries (clause headers at the start of a
// line, blank-line paragraph breaks) and then at sentence ends inside each
// block. Segmentation is best effort: it does not claim to find true legal
// clause boundaries. Re-segmenting a clause's own text always returns that
// text as a single clause.
package segment

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/clauseguard/internal/match"
	"github.com/ppiankov/clauseguard/internal/model"
)

// ErrEmptyInput is returned when the document has no analyzable text
var ErrEmptyInput = errors.New("empty input: document contains no extractable text")

var (
	// Clause header at the start of a line: "1.", "2.3)", "(a)", "(iv)", "b.", "Article 4", "Section 2", "Clause 7".
	// "" counts as a line end so CRLF text cuts like LF text.
	headerRe = regexp.MustCompile(`(?m)^[ \t]*(?:\d{1,3}(?:\.\d{1,3})*[.)]|\(\s*(?:\d{1,3}|[a-zA-Z]|[ivxlcdmIVXLCDM]{1,6})\s*\)|[a-zA-Z][.)]|(?i:article|section|clause)\s+(?:\d{1,3}|[ivxlcdmIVXLCDM]{1,6})\b)(?:[ \t\r]|$)`)

	// Blank line between paragraphs
	blankLineRe = regexp.MustCompile(`\n[ \t\r]*\n`)
)

// abbreviations that end in a period without ending the sentence
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"no": true, "nos": true, "co": true, "inc": true, "ltd": true, "pvt": true,
	"e.g": true, "i.e": true, "etc": true, "vs": true, "viz": true,
	"sec": true, "art": true, "cl": true, "para": true, "st": true,
	"rs": true, "re": true, "jr": true, "sr": true, "approx": true,
}

// Segmenter splits documents into clauses. The zero value is ready to use.
type Segmenter struct{}

// New returns a Segmenter
func New() *Segmenter {
	return &Segmenter{}
}

// Segment splits text into an ordered, contiguous sequence of clauses
func (s *Segmenter) Segment(text string) ([]model.Clause, error) {
	if !hasLetterOrDigit(text) {
		return nil, ErrEmptyInput
	}

	cuts := structuralCuts(text)

	var ranges [][2]int
	for i := 0; i+1 < len(cuts); i++ {
		a, b := cuts[i], cuts[i+1]
		prev := a
		for _, c := range sentenceCuts(text[a:b]) {
			ranges = appendTrimmed(ranges, text, prev, a+c)
			prev = a + c
		}
		ranges = appendTrimmed(ranges, text, prev, b)
	}

	ranges = mergeLetterless(ranges, text)
	if len(ranges) == 0 {
		return nil, ErrEmptyInput
	}

	clauses := make([]model.Clause, len(ranges))
	for i, r := range ranges {
		raw := text[r[0]:r[1]]
		clauses[i] = model.Clause{
			Index:      i,
			Text:       raw,
			Normalized: match.NormalizeString(raw),
			Start:      r[0],
			End:        r[1],
		}
	}
	return clauses, nil
}

// Segment splits text with a default Segmenter
func Segment(text string) ([]model.Clause, error) {
	return New().Segment(text)
}

// structuralCuts returns sorted unique block boundaries including 0 and len(text)
func structuralCuts(text string) []int {
	set := map[int]bool{0: true, len(text): true}

	for _, loc := range headerRe.FindAllStringIndex(text, -1) {
		// Cut where the header itself starts, after any indentation
		start := loc[0]
		for start < loc[1] && (text[start] == ' ' || text[start] == '\t') {
			start++
		}
		set[start] = true
	}
	for _, loc := range blankLineRe.FindAllStringIndex(text, -1) {
		set[loc[1]] = true
	}

	cuts := make([]int, 0, len(set))
	for c := range set {
		cuts = append(cuts, c)
	}
	sort.Ints(cuts)
	return cuts
}

// sentenceCuts returns offsets inside block where a new sentence starts.
// Decisions only look at text inside the block, so a clause re-segmented on
// its own sees the same context.
func sentenceCuts(block string) []int {
	var cuts []int

	for i := 0; i < len(block); {
		r, size := utf8.DecodeRuneInString(block[i:])
		if !isTerminator(r) {
			i += size
			continue
		}

		end := i + size
		// Swallow repeated terminators and closing quotes/brackets
		for end < len(block) {
			nr, ns := utf8.DecodeRuneInString(block[end:])
			if isTerminator(nr) || isCloser(nr) {
				end += ns
				continue
			}
			break
		}

		// Need whitespace, then a sentence starter
		next := end
		for next < len(block) {
			nr, ns := utf8.DecodeRuneInString(block[next:])
			if !unicode.IsSpace(nr) {
				break
			}
			next += ns
		}
		if next == end || next >= len(block) {
			i = end
			continue
		}

		starter, _ := utf8.DecodeRuneInString(block[next:])
		if !isSentenceStarter(starter) {
			i = end
			continue
		}

		if r == '.' && !endsSentence(block, i) {
			i = end
			continue
		}

		cuts = append(cuts, next)
		i = next
	}

	return cuts
}

// endsSentence decides whether the period at dot closes a sentence
func endsSentence(block string, dot int) bool {
	tokStart := dot
	for tokStart > 0 {
		pr, ps := utf8.DecodeLastRuneInString(block[:tokStart])
		if unicode.IsSpace(pr) {
			break
		}
		tokStart -= ps
	}
	token := strings.ToLower(strings.Trim(block[tokStart:dot], "(\"'"))

	if token == "" {
		return true
	}
	if abbreviations[token] {
		return false
	}
	if utf8.RuneCountInString(token) == 1 {
		r, _ := utf8.DecodeRuneInString(token)
		if unicode.IsLetter(r) {
			return false
		}
	}

	// A number opening its line is a clause number, not a sentence end
	if isNumbering(token) && atLineStart(block, tokStart) {
		return false
	}

	return true
}

func atLineStart(block string, pos int) bool {
	for pos > 0 {
		pr, ps := utf8.DecodeLastRuneInString(block[:pos])
		if pr == '\n' {
			return true
		}
		if pr != ' ' && pr != '\t' && pr != '\r' {
			return false
		}
		pos -= ps
	}
	return true
}

func isNumbering(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) && r != '.' && r != ')' && r != '(' {
			return false
		}
	}
	return true
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '।', '॥':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’':
		return true
	}
	return false
}

func isSentenceStarter(r rune) bool {
	if unicode.IsUpper(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '(', '"', '\'', '“', '‘', '[':
		return true
	}
	// Scripts without case (Devanagari) start sentences with any letter
	return unicode.IsLetter(r) && !unicode.IsLower(r)
}

// appendTrimmed adds text[a:b] with surrounding whitespace removed, if any remains
func appendTrimmed(ranges [][2]int, text string, a, b int) [][2]int {
	seg := text[a:b]
	lead := len(seg) - len(strings.TrimLeftFunc(seg, unicode.IsSpace))
	trail := len(seg) - len(strings.TrimRightFunc(seg, unicode.IsSpace))
	if lead == len(seg) {
		return ranges
	}
	return append(ranges, [2]int{a + lead, b - trail})
}

// mergeLetterless folds segments with no letters (bare numbers, rules, headers)
// into the following segment, or the previous one at the end of the document
func mergeLetterless(ranges [][2]int, text string) [][2]int {
	if len(ranges) == 0 {
		return ranges
	}

	out := make([][2]int, 0, len(ranges))
	pending := -1 // start of letterless run waiting for a home

	for _, r := range ranges {
		if !hasLetter(text[r[0]:r[1]]) {
			if pending < 0 {
				pending = r[0]
			}
			continue
		}
		if pending >= 0 {
			r[0] = pending
			pending = -1
		}
		out = append(out, r)
	}

	if pending >= 0 {
		last := ranges[len(ranges)-1][1]
		if len(out) == 0 {
			out = append(out, [2]int{pending, last})
		} else {
			out[len(out)-1][1] = last
		}
	}

	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
