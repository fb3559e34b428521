package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rezonia/invoice-validator/internal/processor"
	"github.com/rezonia/invoice-validator/internal/report"
)

var (
	extractTimeout time.Duration
	extractDir     string
)

var extractCmd = &cobra.Command{
	Use:   "extract [files...]",
	Short: "Extract invoices from text with an LLM and validate them",
	Long: `Send raw invoice text (for example OCR output) to an OpenAI-compatible
chat model, then validate the extracted fields.

Requires an API key (--api-key or LLM_API_KEY). Directories are walked for
.txt files.

Examples:
  invoice-validator extract invoice.txt --api-key <key>
  invoice-validator extract ocr/ --save-dir extracted/ -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 2*time.Minute, "Extraction timeout per file")
	extractCmd.Flags().StringVar(&extractDir, "save-dir", "", "Write each extraction result as JSON into this directory")
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	extractor := newExtractor(logger)
	if extractor == nil {
		return fmt.Errorf("LLM extraction requires an API key (--api-key or LLM_API_KEY)")
	}

	files, err := collectFiles(args, ".txt")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to extract")
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	if extractDir != "" {
		if err := os.MkdirAll(extractDir, 0o755); err != nil {
			return fmt.Errorf("failed to create save dir: %w", err)
		}
	}

	pipeline := processor.NewPipeline(
		processor.WithEngine(engine),
		processor.WithTextExtractor(extractor),
		processor.WithLogger(logger),
	)

	printVerbose("Extracting %d files with %s\n", len(files), cfg.LLM.Model)

	results := make([]report.FileResult, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.Batch.Concurrency)
	for i, file := range files {
		g.Go(func() error {
			results[i] = extractFile(ctx, pipeline, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rep := report.New(results)
	if err := writeReport(rep); err != nil {
		return err
	}
	return reportError(rep)
}

func extractFile(ctx context.Context, pipeline *processor.Pipeline, path string) report.FileResult {
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	result := report.FileResult{File: path, Method: string(processor.MethodLLMText)}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	processed := pipeline.ProcessText(ctx, string(data))
	if processed.Error != nil {
		result.Error = processed.Error.Error()
		return result
	}
	result.Result = processed.Validation

	if extractDir != "" {
		if err := saveExtraction(extractDir, path, processed); err != nil {
			result.Error = err.Error()
		}
	}
	return result
}
