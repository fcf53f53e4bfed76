// Package adapters selects how a loaded document is turned into contract text
package adapters

import (
	"path"
	"strings"

	"golang.org/x/net/html"
)

// Adapter turns raw document bytes of one format into plain contract text
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given source/content type
	CanHandle(source string, contentType string) bool

	// ExtractText returns the contract text of the document
	ExtractText(content []byte) (string, error)
}

// Registry manages format adapters
type Registry struct {
	adapters []Adapter
	fallback Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry(htmlOpts ...HTMLOption) *Registry {
	registry := &Registry{}

	registry.Register(NewHTMLAdapter(htmlOpts...))

	// Plain text handles everything else
	registry.fallback = NewTextAdapter()

	return registry
}

// Register registers a new adapter. Adapters are tried in registration order.
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the adapter for the given source and content type
func (r *Registry) FindAdapter(source string, contentType string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(source, contentType) {
			return adapter
		}
	}
	return r.fallback
}

// Names lists the registered adapters, fallback last
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters)+1)
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return append(names, r.fallback.Name())
}

// BaseAdapter provides common helpers for adapters
type BaseAdapter struct{}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// FindFirst finds the first node matching a predicate, depth first
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}

// extension returns the lowercased file extension of a path or URL
func extension(source string) string {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	return strings.ToLower(path.Ext(source))
}

// mediaType strips parameters from a Content-Type value
func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
