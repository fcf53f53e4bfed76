// Package extract turns fetched or loaded documents into plain contract text
// and pulls key entities out of that text.
package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Elements whose content is never contract text
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"head":     true,
	"template": true,
	"svg":      true,
}

// Elements that start a new paragraph
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"header": true, "footer": true, "aside": true, "nav": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ol": true, "ul": true, "dl": true, "dt": true, "dd": true,
	"table": true, "tr": true, "blockquote": true, "pre": true, "hr": true,
	"address": true, "figure": true, "figcaption": true, "form": true,
}

// HTMLText parses an HTML document and returns its visible text. Block
// elements become blank-line separated paragraphs so clause numbering and
// headings survive segmentation; <br> becomes a line break.
func HTMLText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	return VisibleText(doc), nil
}

// VisibleText renders the visible text below n
func VisibleText(n *html.Node) string {
	w := &paragraphWriter{}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipElements[n.Data] {
				return
			}
			if n.Data == "br" {
				w.lineBreak()
				return
			}
			if blockElements[n.Data] {
				w.paragraph()
				defer w.paragraph()
			}
			if n.Data == "td" || n.Data == "th" {
				defer w.text(" ")
			}
		case html.TextNode:
			w.text(n.Data)
			return
		case html.CommentNode:
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return w.String()
}

// paragraphWriter collapses whitespace inside lines and owes at most one
// separator between consecutive lines
type paragraphWriter struct {
	out   strings.Builder
	line  strings.Builder
	space bool   // whitespace seen since the last word
	sep   string // separator owed before the next line
}

func (w *paragraphWriter) text(s string) {
	if s == "" {
		return
	}
	if isSpace(s[0]) {
		w.space = true
	}
	for i, field := range strings.Fields(s) {
		if w.line.Len() > 0 && (i > 0 || w.space) {
			w.line.WriteByte(' ')
		}
		w.line.WriteString(field)
		w.space = false
	}
	if isSpace(s[len(s)-1]) {
		w.space = true
	}
}

func (w *paragraphWriter) lineBreak() { w.breakLine("\n") }

func (w *paragraphWriter) paragraph() { w.breakLine("\n\n") }

func (w *paragraphWriter) breakLine(sep string) {
	switch {
	case w.line.Len() > 0:
		if w.out.Len() > 0 {
			w.out.WriteString(w.sep)
		}
		w.out.WriteString(w.line.String())
		w.line.Reset()
		w.sep = sep
	case len(sep) > len(w.sep):
		w.sep = sep
	}
	w.space = false
}

func (w *paragraphWriter) String() string {
	w.breakLine("")
	return w.out.String()
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}
