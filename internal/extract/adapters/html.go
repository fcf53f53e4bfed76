package adapters

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/ppiankov/clauseguard/internal/extract"
	"golang.org/x/net/html"
)

// Base URL handed to readability, which only uses it to resolve links
var readerBaseURL = &url.URL{Scheme: "https", Host: "localhost", Path: "/"}

// HTMLAdapter extracts contract text from web pages
type HTMLAdapter struct {
	BaseAdapter
	readerMode bool
}

// HTMLOption configures an HTMLAdapter
type HTMLOption func(*HTMLAdapter)

// WithReaderMode runs readability on pages that have no <main>, <article>
// or role="main" element, instead of using the whole document
func WithReaderMode(enabled bool) HTMLOption {
	return func(a *HTMLAdapter) { a.readerMode = enabled }
}

// NewHTMLAdapter creates a new HTML adapter
func NewHTMLAdapter(opts ...HTMLOption) *HTMLAdapter {
	a := &HTMLAdapter{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the adapter name
func (a *HTMLAdapter) Name() string {
	return "html"
}

// CanHandle matches HTML content types and .html/.htm sources
func (a *HTMLAdapter) CanHandle(source string, contentType string) bool {
	switch mediaType(contentType) {
	case "text/html", "application/xhtml+xml":
		return true
	}
	switch extension(source) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// ExtractText returns the visible text of the main content area.
// Pages with a <main>, <article> or role="main" element are reduced to it so
// navigation and footers do not become clauses.
func (a *HTMLAdapter) ExtractText(content []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	mainContent := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "main"
	})
	if mainContent == nil {
		mainContent = a.FindFirst(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode &&
				(n.Data == "article" || a.GetAttribute(n, "role") == "main")
		})
	}
	if mainContent != nil {
		return extract.VisibleText(mainContent), nil
	}

	if a.readerMode {
		if text, ok := readerText(content); ok {
			return text, nil
		}
	}
	return extract.VisibleText(doc), nil
}

// readerText renders the article readability finds. The article HTML goes
// back through the paragraph writer so clause breaks survive.
func readerText(content []byte) (string, bool) {
	article, err := readability.FromReader(bytes.NewReader(content), readerBaseURL)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return "", false
	}
	text, err := extract.HTMLText(article.Content)
	if err != nil || strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}
