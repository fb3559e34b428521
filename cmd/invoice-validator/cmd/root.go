package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/invoice-validator/internal/config"
	"github.com/rezonia/invoice-validator/internal/llm"
	"github.com/rezonia/invoice-validator/internal/processor"
	"github.com/rezonia/invoice-validator/internal/validation"
)

var (
	version = "1.0.0"

	// Global flags
	verbose        bool
	outputFormat   string
	outputFile     string
	toleranceCents int
	requiredFields string
	concurrency    int
	apiKey         string
	llmBaseURL     string
	llmModel       string

	// cfg is the environment configuration with flag overrides applied
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "invoice-validator",
	Short: "Validate extracted invoice data",
	Long: `Invoice Validator checks invoice data produced by OCR, LLM or structured
parsers for completeness and arithmetic consistency.

Checks performed:
  - Required header fields present (vendor, invoice number, total)
  - Date and amount field formats
  - Line items: quantity x unit price = line total
  - Header reconciliation: lines sum to subtotal, subtotal + tax = total

Examples:
  # Validate extraction results
  invoice-validator validate extraction.json invoices/*.xml

  # Allow five cents of rounding and write a spreadsheet
  invoice-validator validate results/ --tolerance-cents 5 -f xlsx -o report.xlsx

  # Extract from raw text with an LLM, then validate
  invoice-validator extract invoice.txt --api-key <openrouter-key>

  # Run the HTTP API
  invoice-validator serve --address :8080`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command; SIGINT and SIGTERM cancel its context
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	flags.StringVarP(&outputFormat, "format", "f", "table", "Output format (json, table, csv, xlsx)")
	flags.StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	flags.IntVar(&toleranceCents, "tolerance-cents", validation.DefaultToleranceCents, "Rounding tolerance in cents (env: VALIDATOR_TOLERANCE_CENTS)")
	flags.StringVar(&requiredFields, "required", "", "Comma separated required header fields (env: VALIDATOR_REQUIRED_FIELDS)")
	flags.IntVar(&concurrency, "concurrency", config.DefaultConcurrency, "Files validated in parallel (env: VALIDATOR_CONCURRENCY)")
	flags.StringVar(&apiKey, "api-key", "", "API key for LLM provider (env: LLM_API_KEY)")
	flags.StringVar(&llmBaseURL, "llm-base-url", "", "LLM API base URL (env: LLM_BASE_URL)")
	flags.StringVar(&llmModel, "llm-model", "", "LLM model for text extraction (env: LLM_MODEL)")
}

// loadConfig reads the environment, then lets explicitly set flags win
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg = config.Load()

	flags := cmd.Flags()
	if flags.Changed("tolerance-cents") {
		cfg.Validation.ToleranceCents = toleranceCents
	}
	if flags.Changed("required") {
		cfg.Validation.RequiredFields = config.SplitList(requiredFields)
	}
	if flags.Changed("concurrency") {
		cfg.Batch.Concurrency = concurrency
	}
	if apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if llmBaseURL != "" {
		cfg.LLM.BaseURL = llmBaseURL
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}

	return cfg.Validate()
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newEngine() (*validation.Engine, error) {
	return validation.New(cfg.EngineOptions()...)
}

// newExtractor returns nil when no API key is configured
func newExtractor(logger *zap.Logger) processor.TextExtractor {
	if !cfg.LLMEnabled() {
		return nil
	}
	client := llm.NewClient(cfg.LLM.APIKey,
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithDefaultModel(cfg.LLM.Model),
		llm.WithTimeout(cfg.LLM.Timeout),
	)
	return llm.NewExtractor(client, llm.WithModel(cfg.LLM.Model), llm.WithLogger(logger))
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
