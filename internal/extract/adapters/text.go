package adapters

import (
	"strings"
	"unicode/utf8"
)

// TextAdapter is the fallback for plain text contracts
type TextAdapter struct{}

// NewTextAdapter creates a new plain text adapter
func NewTextAdapter() *TextAdapter {
	return &TextAdapter{}
}

// Name returns the adapter name
func (a *TextAdapter) Name() string {
	return "text"
}

// CanHandle always returns true (fallback adapter)
func (a *TextAdapter) CanHandle(source string, contentType string) bool {
	return true
}

// ExtractText strips a byte order mark, normalizes line endings and replaces
// invalid UTF-8 sequences
func (a *TextAdapter) ExtractText(content []byte) (string, error) {
	text := string(content)
	text = strings.TrimPrefix(text, "\ufeff")
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\ufffd")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text, nil
}
