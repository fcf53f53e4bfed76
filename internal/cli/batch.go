package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/clauseguard/internal/pipeline"
	"github.com/ppiankov/clauseguard/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	scanTimeout  time.Duration
	rps          float64
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many contracts listed in a file in parallel",
	Long: `Batch analyzes many contracts concurrently:
- Read sources from the input file (one file path or URL per line, # for comments)
- Analyze them in parallel with a configurable worker count
- Pace URL fetches per host
- Write a JSON and a Markdown report for each source

Example:
  clauseguard batch contracts.txt
  clauseguard batch contracts.txt --concurrency 8 --output-dir ./reports
  clauseguard batch urls.txt --rps 1 --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./clauseguard-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().DurationVar(&scanTimeout, "scan-timeout", 0, "HTTP timeout for individual URL fetches")
	batchCmd.Flags().Float64Var(&rps, "rps", 0, "max requests per second per host (default: rate_limiting.requests_per_second)")
	addAnalysisFlags(batchCmd.Flags())
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg := appConfig
	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("scan-timeout") {
		cfg.HTTP.Timeout = scanTimeout
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	if cmd.Flags().Changed("rps") {
		cfg.RateLimiting.RequestsPerSecond = rps
	}
	if cfg.Concurrency.Workers <= 0 {
		cfg.Concurrency.Workers = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  clauseguard Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// Per-contract terminal summaries are replaced by one line each
	p, err := pipeline.NewPipeline(cfg, pipeline.WithStdout(io.Discard))
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers,
		cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing sources with %d workers...\n\n", cfg.Concurrency.Workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Source, result.Error)
			continue
		}

		base := fmt.Sprintf("%02d-%s", result.Index+1, sanitizeFilename(result.Source))
		jsonPath := filepath.Join(outputDir, base+".json")
		mdPath := filepath.Join(outputDir, base+".md")

		if err := p.RenderReport(result.Analysis, jsonPath, mdPath, false); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Source, err)
			continue
		}

		successCount++
		report := result.Analysis.Report
		fmt.Fprintf(os.Stderr, "✓ %s (%s, index: %d/100, %d findings)\n",
			result.Source, report.ContractType.Type.DisplayName(), report.Score.Index, len(report.Findings))
	}

	writeMetrics(p, cfg)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d sources\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("all %d sources failed", failureCount)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

const maxFilenameLen = 80

// sanitizeFilename turns a file path or URL into a safe report file stem
func sanitizeFilename(source string) string {
	name := source
	if u, err := url.Parse(source); err == nil && u.Host != "" {
		name = u.Host + strings.TrimSuffix(u.Path, "/")
	} else {
		name = filepath.Base(source)
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	name = unsafeFilenameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if len(name) > maxFilenameLen {
		name = strings.TrimRight(name[:maxFilenameLen], "-.")
	}
	if name == "" {
		return "contract"
	}
	return name
}
