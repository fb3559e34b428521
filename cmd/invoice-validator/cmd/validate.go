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

var fileTimeout time.Duration

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate extraction result files",
	Long: `Validate one or more extraction results for completeness and correctness.

Inputs are JSON extraction results ({"header": ..., "lines": ..., "confidence": ...})
or invoice XML (generic <Invoice> documents and UBL 2.1). Directories are walked
for .json and .xml files.

A failing invoice is reported with its issues; the command exits non-zero when
any file fails or cannot be read.

Examples:
  invoice-validator validate extraction.json
  invoice-validator validate results/ -f csv -o issues.csv
  invoice-validator validate *.json --required vendor_name,invoice_number,invoice_date`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().DurationVar(&fileTimeout, "timeout", 30*time.Second, "Processing timeout per file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".json", ".xml")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	logger := newLogger()
	defer logger.Sync()

	pipeline := processor.NewPipeline(
		processor.WithEngine(engine),
		processor.WithLogger(logger),
	)

	printVerbose("Validating %d files (tolerance %d cents)\n", len(files), cfg.Validation.ToleranceCents)

	results := make([]report.FileResult, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.Batch.Concurrency)
	for i, file := range files {
		g.Go(func() error {
			results[i] = validateFile(ctx, pipeline, file)
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

func validateFile(ctx context.Context, pipeline *processor.Pipeline, path string) report.FileResult {
	ctx, cancel := context.WithTimeout(ctx, fileTimeout)
	defer cancel()

	result := report.FileResult{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	processed := pipeline.Process(ctx, data)
	result.Method = string(processed.Method)
	if processed.Error != nil {
		result.Error = processed.Error.Error()
		printVerbose("  %s: %s\n", path, result.Error)
		return result
	}

	result.Result = processed.Validation
	printVerbose("  %s: passed=%t issues=%d\n", path, processed.Validation.Passed, len(processed.Validation.Issues))
	return result
}
