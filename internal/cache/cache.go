// Package cache stores fetched contract documents so repeated analyses of
// the same URL do not hit the network.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "clauseguard-doc-v1-"

// Document is a fetched contract document as stored in the cache
type Document struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Key generates a cache key from a URL. Fragments are dropped and the
// scheme and host are lowercased, so trivially different spellings of one
// document share an entry.
func Key(rawURL string) string {
	normalized := strings.TrimSpace(rawURL)
	if u, err := url.Parse(normalized); err == nil {
		u.Fragment = ""
		u.Scheme = strings.ToLower(u.Scheme)
		u.Host = strings.ToLower(u.Host)
		normalized = u.String()
	}
	hash := sha256.Sum256([]byte(normalized))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// GetDocument loads the cached document for rawURL
func GetDocument(c Cache, rawURL string) (*Document, bool) {
	data, ok := c.Get(Key(rawURL))
	if !ok {
		return nil, false
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	return &doc, true
}

// PutDocument stores doc under its URL. A zero ttl uses each layer's default.
func PutDocument(c Cache, doc *Document, ttl time.Duration) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.Set(Key(doc.URL), data, ttl)
}
