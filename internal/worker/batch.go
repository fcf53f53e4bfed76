package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/pipeline"
)

// Scanner analyzes one source: a file path, "-" or a URL
type Scanner interface {
	AnalyzeSource(ctx context.Context, source string) (*pipeline.Result, error)
}

// AnalyzeJob represents one source to analyze
type AnalyzeJob struct {
	Index   int
	Source  string
	Scanner Scanner
	Limiter *Limiter // nil disables rate limiting
}

// Execute executes the job. URL sources wait for their host's rate limit.
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil && pipeline.IsURL(j.Source) {
		if err := j.Limiter.Wait(ctx, j.Source); err != nil {
			return &AnalyzeResult{Index: j.Index, Source: j.Source, Error: fmt.Errorf("rate limit: %w", err)}
		}
	}

	result, err := j.Scanner.AnalyzeSource(ctx, j.Source)
	if err != nil {
		return &AnalyzeResult{
			Index:  j.Index,
			Source: j.Source,
			Error:  err,
		}
	}
	return &AnalyzeResult{
		Index:    j.Index,
		Source:   j.Source,
		Analysis: result.Analysis,
	}
}

// AnalyzeResult represents the result of one job
type AnalyzeResult struct {
	Index    int
	Source   string
	Analysis *model.Analysis
	Error    error
}

// GetError returns the error from the result
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many sources concurrently
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. A non-positive
// requestsPerSecond disables per-host rate limiting.
func NewBatchProcessor(scanner Scanner, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	b := &BatchProcessor{
		scanner:     scanner,
		concurrency: concurrency,
	}
	if requestsPerSecond > 0 {
		b.limiter = NewLimiter(requestsPerSecond, burst)
	}
	return b
}

// ProcessSources analyzes sources concurrently and returns one result per
// source, in input order. Sources not reached before ctx ends carry the
// context error.
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*AnalyzeResult {
	if len(sources) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPoolContext(ctx, b.concurrency)
	pool.Start()

	for i, source := range sources {
		pool.Submit(&AnalyzeJob{
			Index:   i,
			Source:  source,
			Scanner: b.scanner,
			Limiter: b.limiter,
		})
	}

	ordered := make([]*AnalyzeResult, len(sources))
	for _, result := range pool.Wait() {
		r := result.(*AnalyzeResult)
		ordered[r.Index] = r
	}

	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &AnalyzeResult{Index: i, Source: sources[i], Error: err}
		}
	}

	return ordered
}

// ProcessFile reads sources from a list file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeResult, error) {
	sources, err := ReadSourcesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.ProcessSources(ctx, sources), nil
}

// ReadSourcesFromFile reads sources from a file (one path or URL per line).
// Blank lines and # comments are skipped and duplicates dropped.
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}
