package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/clauseguard/internal/cache"
	"github.com/ppiankov/clauseguard/internal/logging"
	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/util"
	"github.com/sirupsen/logrus"
)

// ErrRobotsDisallowed is returned when robots.txt forbids fetching a URL
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// fetchSleepFunc is swapped out in tests
var fetchSleepFunc = time.Sleep

const maxRedirects = 3

// StatusError is a non-2xx HTTP response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Fetcher downloads contract documents from URLs
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries int
	robots     *util.RobotsChecker
	cache      cache.Cache
	cacheTTL   time.Duration
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithRobots checks robots.txt before every network fetch
func WithRobots(r *util.RobotsChecker) FetcherOption {
	return func(f *Fetcher) { f.robots = r }
}

// WithCache serves repeated fetches from c. A zero ttl uses the cache default.
func WithCache(c cache.Cache, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// NewFetcher creates a Fetcher from HTTP configuration
func NewFetcher(cfg model.HTTPConfig, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: util.NewHTTPClient(util.ClientOptions{
			Timeout:      cfg.Timeout,
			InsecureTLS:  cfg.InsecureTLS,
			HTTPProxy:    cfg.HTTPProxy,
			HTTPSProxy:   cfg.HTTPSProxy,
			NoProxy:      cfg.NoProxy,
			MaxRedirects: maxRedirects,
		}),
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBodyBytes,
		maxRetries: cfg.MaxRetries,
	}
	if f.maxBytes <= 0 {
		f.maxBytes = model.DefaultConfig().HTTP.MaxBodyBytes
	}
	if f.maxRetries < 0 {
		f.maxRetries = 0
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchResult is a downloaded document
type FetchResult struct {
	Content     []byte
	ContentType string
	FinalURL    string
	FromCache   bool
}

// Fetch makes a single GET request for rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-IN,en;q=0.9,hi;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isTextual(contentType) {
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		Content:     body,
		ContentType: contentType,
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry serves rawURL from the cache when possible, otherwise
// checks robots.txt and fetches with exponential backoff on transient
// failures (network errors, 5xx, 429).
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.cache != nil {
		if doc, ok := cache.GetDocument(f.cache, rawURL); ok {
			logging.Log.WithField("url", rawURL).Debug("fetch cache hit")
			return &FetchResult{
				Content:     doc.Body,
				ContentType: doc.ContentType,
				FinalURL:    doc.FinalURL,
				FromCache:   true,
			}, nil
		}
	}

	if f.robots != nil {
		policy, err := f.robots.Check(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !policy.Allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrRobotsDisallowed)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			logging.Log.WithFields(logrus.Fields{
				"url":     rawURL,
				"attempt": attempt + 1,
				"backoff": backoff,
			}).Warnf("retrying fetch: %v", lastErr)
			fetchSleepFunc(backoff)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			f.store(rawURL, result)
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

func (f *Fetcher) store(rawURL string, result *FetchResult) {
	if f.cache == nil {
		return
	}
	doc := &cache.Document{
		URL:         rawURL,
		FinalURL:    result.FinalURL,
		ContentType: result.ContentType,
		Body:        result.Content,
		FetchedAt:   time.Now().UTC(),
	}
	if err := cache.PutDocument(f.cache, doc, f.cacheTTL); err != nil {
		logging.Log.WithField("url", rawURL).Warnf("cache store failed: %v", err)
	}
}

// isRetryableFetchError reports whether a fetch failure is worth another
// attempt: network errors, 5xx and 429
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// isTextual accepts HTML and plain-text responses. A missing header is
// accepted and left to content sniffing by the caller.
func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "text/") || mt == "application/xhtml+xml"
}

// IsURL reports whether source should be fetched rather than read from disk
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
